package store

import (
	"context"
	"encoding/binary"

	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/types"
)

// Counter is a summed CRDT counter, OrbitDB's "counter"
// database type. Every increment is logged independently so two replicas
// that both increment concurrently converge on the sum of both increments
// rather than one clobbering the other.
type Counter struct {
	log *oplog
}

// NewCounter is the registry Constructor for the "counter" type.
func NewCounter(ctx context.Context, deps Dependencies) (Store, error) {
	log, err := newOplog(deps)
	if err != nil {
		return nil, err
	}
	return &Counter{log: log}, nil
}

func (c *Counter) Address() types.Address { return c.log.address }
func (c *Counter) Type() string           { return "counter" }
func (c *Counter) Events() *events.Broker { return c.log.broker }
func (c *Counter) Close() error           { return c.log.close() }
func (c *Counter) Heads() []string        { return c.log.currentHeads() }

func (c *Counter) Sync(ctx context.Context, remoteHeads []string) error {
	return c.log.sync(ctx, remoteHeads)
}

// Inc appends an increment of amount (negative values decrement) and
// returns the new total.
func (c *Counter) Inc(ctx context.Context, amount int64) (int64, error) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(amount))
	if _, err := c.log.append(ctx, payload); err != nil {
		return 0, err
	}
	return c.Value(ctx)
}

// Value replays the full log and returns the current sum.
func (c *Counter) Value(ctx context.Context) (int64, error) {
	entries, err := c.log.collectAll(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if len(e.Payload) != 8 {
			continue
		}
		total += int64(binary.BigEndian.Uint64(e.Payload))
	}
	return total, nil
}
