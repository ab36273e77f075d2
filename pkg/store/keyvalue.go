package store

import (
	"context"
	"encoding/json"

	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/types"
)

// KeyValue replays a log of put/delete operations into a key-value map,
// OrbitDB's "keyvalue" database type. Last write wins by log order.
type KeyValue struct {
	log *oplog
}

// NewKeyValue is the registry Constructor for the "keyvalue" type.
func NewKeyValue(ctx context.Context, deps Dependencies) (Store, error) {
	log, err := newOplog(deps)
	if err != nil {
		return nil, err
	}
	return &KeyValue{log: log}, nil
}

func (kv *KeyValue) Address() types.Address { return kv.log.address }
func (kv *KeyValue) Type() string           { return "keyvalue" }
func (kv *KeyValue) Events() *events.Broker { return kv.log.broker }
func (kv *KeyValue) Close() error           { return kv.log.close() }
func (kv *KeyValue) Heads() []string        { return kv.log.currentHeads() }

func (kv *KeyValue) Sync(ctx context.Context, remoteHeads []string) error {
	return kv.log.sync(ctx, remoteHeads)
}

type kvOp struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value []byte `json:"value,omitempty"`
}

// Put sets key to value.
func (kv *KeyValue) Put(ctx context.Context, key string, value []byte) error {
	payload, err := json.Marshal(kvOp{Op: "put", Key: key, Value: value})
	if err != nil {
		return err
	}
	_, err = kv.log.append(ctx, payload)
	return err
}

// Delete removes key.
func (kv *KeyValue) Delete(ctx context.Context, key string) error {
	payload, err := json.Marshal(kvOp{Op: "del", Key: key})
	if err != nil {
		return err
	}
	_, err = kv.log.append(ctx, payload)
	return err
}

// Get replays the full log and returns the current value for key.
func (kv *KeyValue) Get(ctx context.Context, key string) ([]byte, bool, error) {
	snapshot, err := kv.All(ctx)
	if err != nil {
		return nil, false, err
	}
	value, ok := snapshot[key]
	return value, ok, nil
}

// All replays the full log into the current key-value map.
func (kv *KeyValue) All(ctx context.Context) (map[string][]byte, error) {
	entries, err := kv.log.collectAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte)
	for _, e := range entries {
		var op kvOp
		if err := json.Unmarshal(e.Payload, &op); err != nil {
			continue
		}
		switch op.Op {
		case "put":
			result[op.Key] = op.Value
		case "del":
			delete(result, op.Key)
		}
	}
	return result, nil
}
