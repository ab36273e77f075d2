package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/types"
)

// DocStore replays a log of put/delete operations keyed by each document's
// indexBy field, OrbitDB's "docstore" database type.
type DocStore struct {
	log     *oplog
	indexBy string
}

// NewDocStore is the registry Constructor for the "docstore" type. It reads
// "indexBy" out of Options.Defaults, defaulting to "_id".
func NewDocStore(ctx context.Context, deps Dependencies) (Store, error) {
	log, err := newOplog(deps)
	if err != nil {
		return nil, err
	}
	indexBy := "_id"
	if v, ok := deps.Options.Defaults["indexBy"]; ok {
		if s, ok := v.(string); ok && s != "" {
			indexBy = s
		}
	}
	return &DocStore{log: log, indexBy: indexBy}, nil
}

func (d *DocStore) Address() types.Address { return d.log.address }
func (d *DocStore) Type() string           { return "docstore" }
func (d *DocStore) Events() *events.Broker { return d.log.broker }
func (d *DocStore) Close() error           { return d.log.close() }
func (d *DocStore) Heads() []string        { return d.log.currentHeads() }

func (d *DocStore) Sync(ctx context.Context, remoteHeads []string) error {
	return d.log.sync(ctx, remoteHeads)
}

type docOp struct {
	Op  string          `json:"op"`
	Key string          `json:"key"`
	Doc json.RawMessage `json:"doc,omitempty"`
}

// Put indexes doc under the value of its indexBy field.
func (d *DocStore) Put(ctx context.Context, doc map[string]any) error {
	key, ok := doc[d.indexBy].(string)
	if !ok || key == "" {
		return fmt.Errorf("docstore: document missing string %q field", d.indexBy)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(docOp{Op: "put", Key: key, Doc: raw})
	if err != nil {
		return err
	}
	_, err = d.log.append(ctx, payload)
	return err
}

// Delete removes the document indexed under key.
func (d *DocStore) Delete(ctx context.Context, key string) error {
	payload, err := json.Marshal(docOp{Op: "del", Key: key})
	if err != nil {
		return err
	}
	_, err = d.log.append(ctx, payload)
	return err
}

// Get replays the log and returns the document indexed under key.
func (d *DocStore) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	docs, err := d.Query(ctx)
	if err != nil {
		return nil, false, err
	}
	doc, ok := docs[key]
	return doc, ok, nil
}

// Query replays the full log into the current key -> document map.
func (d *DocStore) Query(ctx context.Context) (map[string]map[string]any, error) {
	entries, err := d.log.collectAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]map[string]any)
	for _, e := range entries {
		var op docOp
		if err := json.Unmarshal(e.Payload, &op); err != nil {
			continue
		}
		switch op.Op {
		case "put":
			var doc map[string]any
			if err := json.Unmarshal(op.Doc, &doc); err != nil {
				continue
			}
			result[op.Key] = doc
		case "del":
			delete(result, op.Key)
		}
	}
	return result, nil
}
