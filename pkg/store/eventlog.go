package store

import (
	"context"

	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/types"
)

// EventLog is an append-only sequence of opaque payloads, OrbitDB's "log"
// (a.k.a. "eventlog") database type.
type EventLog struct {
	log *oplog
}

// NewEventLog is the registry Constructor for the "eventlog" type.
func NewEventLog(ctx context.Context, deps Dependencies) (Store, error) {
	log, err := newOplog(deps)
	if err != nil {
		return nil, err
	}
	return &EventLog{log: log}, nil
}

func (l *EventLog) Address() types.Address { return l.log.address }
func (l *EventLog) Type() string           { return "eventlog" }
func (l *EventLog) Events() *events.Broker { return l.log.broker }
func (l *EventLog) Close() error           { return l.log.close() }
func (l *EventLog) Heads() []string        { return l.log.currentHeads() }

func (l *EventLog) Sync(ctx context.Context, remoteHeads []string) error {
	return l.log.sync(ctx, remoteHeads)
}

// Append writes payload as the next entry and returns its hash.
func (l *EventLog) Append(ctx context.Context, payload []byte) (string, error) {
	return l.log.append(ctx, payload)
}

// IteratorOptions configures Iterator. Limit of -1 returns every entry.
type IteratorOptions struct {
	Limit int
}

// Iterator returns an IteratorResult over the log's entries.
func (l *EventLog) Iterator(ctx context.Context, opts IteratorOptions) (*IteratorResult, error) {
	entries, err := l.log.collectAll(ctx)
	if err != nil {
		return nil, err
	}
	payloads := make([][]byte, len(entries))
	for i, e := range entries {
		payloads[i] = e.entry.Payload
	}
	if opts.Limit >= 0 && opts.Limit < len(payloads) {
		payloads = payloads[len(payloads)-opts.Limit:]
	}
	return &IteratorResult{payloads: payloads}, nil
}

// IteratorResult is the handle Iterator returns; Collect materializes every
// payload it holds in insertion order.
type IteratorResult struct {
	payloads [][]byte
}

// Collect returns every payload in insertion order.
func (r *IteratorResult) Collect() [][]byte {
	return r.payloads
}
