package store

import (
	"context"

	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/types"
)

// Feed is an append-only sequence of payloads that additionally supports
// tombstoning an entry by hash, OrbitDB's "feed" database type. Removed
// entries stay in the log (for replication) but are filtered out of All's
// results.
type Feed struct {
	log *oplog
}

// NewFeed is the registry Constructor for the "feed" type.
func NewFeed(ctx context.Context, deps Dependencies) (Store, error) {
	log, err := newOplog(deps)
	if err != nil {
		return nil, err
	}
	return &Feed{log: log}, nil
}

func (f *Feed) Address() types.Address { return f.log.address }
func (f *Feed) Type() string           { return "feed" }
func (f *Feed) Events() *events.Broker { return f.log.broker }
func (f *Feed) Close() error           { return f.log.close() }
func (f *Feed) Heads() []string        { return f.log.currentHeads() }

func (f *Feed) Sync(ctx context.Context, remoteHeads []string) error {
	return f.log.sync(ctx, remoteHeads)
}

// Add appends payload and returns its hash.
func (f *Feed) Add(ctx context.Context, payload []byte) (string, error) {
	return f.log.append(ctx, payload)
}

// Remove tombstones the entry at hash by appending a removal record that
// references it; the referenced entry's payload is never deleted, only
// excluded from future All results.
func (f *Feed) Remove(ctx context.Context, hash string) (string, error) {
	tombstone, err := encodeFeedOp(feedOp{Op: "remove", Hash: hash})
	if err != nil {
		return "", err
	}
	return f.log.append(ctx, tombstone)
}

// All returns every non-removed payload in insertion order.
func (f *Feed) All(ctx context.Context) ([][]byte, error) {
	entries, err := f.log.collectAll(ctx)
	if err != nil {
		return nil, err
	}

	removed := make(map[string]bool)
	for _, e := range entries {
		if op, ok := decodeFeedOp(e.Payload); ok && op.Op == "remove" {
			removed[op.Hash] = true
		}
	}

	var out [][]byte
	for _, e := range entries {
		if _, ok := decodeFeedOp(e.Payload); ok {
			continue // tombstone record, not user data
		}
		if removed[e.hash] {
			continue
		}
		out = append(out, e.Payload)
	}
	return out, nil
}
