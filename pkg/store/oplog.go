package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/driftdb/driftdb/pkg/accesscontroller"
	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/identity"
	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

const headsCacheKey = "_heads"

// entry is one append-only log record. It is content-addressed: its hash is
// the CID the object store returns from writing it, and Next names the
// heads it was appended on top of, forming a merkle-DAG rather than a flat
// list once two replicas write concurrently.
type entry struct {
	Payload    []byte   `refmt:"payload"`
	Next       []string `refmt:"next"`
	IdentityID string   `refmt:"identity"`
	Clock      uint64   `refmt:"clock"`
}

// oplog is the shared append-only log every concrete store type (feed,
// eventlog, keyvalue, counter, docstore) builds its semantics on top of.
type oplog struct {
	mu sync.Mutex

	objectStore      objectstore.ObjectStore
	cache            cache.Cache
	accessController accesscontroller.AccessController
	identity         *identity.Identity
	address          types.Address
	broker           *events.Broker

	heads []string
	clock uint64

	typeTag string
	onClose func(ctx context.Context, address types.Address)
}

func newOplog(deps Dependencies) (*oplog, error) {
	o := &oplog{
		objectStore:      deps.ObjectStore,
		cache:            deps.Cache,
		accessController: deps.AccessController,
		identity:         deps.Identity,
		address:          deps.Address,
		broker:           events.NewBroker(),
		typeTag:          deps.Options.Type,
		onClose:          deps.OnClose,
	}
	o.broker.Start()

	if raw, ok, err := deps.Cache.Get(headsCacheKey); err != nil {
		return nil, fmt.Errorf("store: load heads: %w", err)
	} else if ok {
		var persisted struct {
			Heads []string `json:"heads"`
			Clock uint64   `json:"clock"`
		}
		if err := json.Unmarshal(raw, &persisted); err != nil {
			return nil, fmt.Errorf("store: decode heads: %w", err)
		}
		o.heads = persisted.Heads
		o.clock = persisted.Clock
	}

	return o, nil
}

func (o *oplog) persistHeads() error {
	raw, err := json.Marshal(struct {
		Heads []string `json:"heads"`
		Clock uint64   `json:"clock"`
	}{Heads: o.heads, Clock: o.clock})
	if err != nil {
		return err
	}
	return o.cache.Set(headsCacheKey, raw)
}

// append writes payload as a new entry on top of the current heads and
// makes it the sole new head. It fails with InvariantViolation if the
// local identity is not permitted to append by the store's access
// controller.
func (o *oplog) append(ctx context.Context, payload []byte) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.accessController.CanAppend(o.identity.ID) {
		return "", types.NewError(types.InvariantViolation, fmt.Sprintf("identity %s may not append to %s", o.identity.ID, o.address))
	}

	o.clock++
	e := &entry{
		Payload:    payload,
		Next:       append([]string(nil), o.heads...),
		IdentityID: o.identity.ID,
		Clock:      o.clock,
	}
	hash, err := o.objectStore.Write(ctx, e, false)
	if err != nil {
		return "", fmt.Errorf("store: write entry: %w", err)
	}

	o.heads = []string{hash}
	if err := o.persistHeads(); err != nil {
		return "", err
	}

	metrics.EntriesAppended.WithLabelValues(o.typeTag).Inc()
	o.broker.Publish(&events.Event{Type: events.EventWriteCommitted, Message: o.address.String()})
	return hash, nil
}

// sync merges remoteHeads into the local head set, fetching any entries the
// local replica has not seen yet. It is idempotent: heads already known are
// skipped.
func (o *oplog) sync(ctx context.Context, remoteHeads []string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncDuration)

	o.mu.Lock()
	defer o.mu.Unlock()

	known := make(map[string]bool, len(o.heads))
	for _, h := range o.heads {
		known[h] = true
	}

	changed := false
	for _, h := range remoteHeads {
		if known[h] {
			continue
		}
		if err := o.fetchChain(ctx, h, known); err != nil {
			return err
		}
		o.heads = append(o.heads, h)
		known[h] = true
		changed = true
	}
	if !changed {
		return nil
	}
	o.heads = dedupeHeadsAt(o.heads)
	if err := o.persistHeads(); err != nil {
		return err
	}
	o.broker.Publish(&events.Event{Type: events.EventHeadsReceived, Message: o.address.String()})
	return nil
}

// fetchChain verifies that hash and every entry it transitively points to
// via Next is reachable in the object store, walking until it hits an
// already-known hash.
func (o *oplog) fetchChain(ctx context.Context, hash string, known map[string]bool) error {
	if known[hash] {
		return nil
	}
	var e entry
	if err := o.objectStore.Read(ctx, hash, &e); err != nil {
		return fmt.Errorf("store: fetch entry %s: %w", hash, err)
	}
	known[hash] = true
	for _, next := range e.Next {
		if err := o.fetchChain(ctx, next, known); err != nil {
			return err
		}
	}
	return nil
}

// dedupeHeadsAt removes repeated hashes from heads, keeping the first
// occurrence of each in order. It does not check ancestry: a head that is
// an ancestor of another head in the set stays in the set as a tip.
func dedupeHeadsAt(heads []string) []string {
	seen := make(map[string]bool, len(heads))
	out := make([]string, 0, len(heads))
	for _, h := range heads {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// hashedEntry pairs an entry with its content hash, which is not part of
// the entry's own encoding since it's derived from it.
type hashedEntry struct {
	hash string
	*entry
}

// collectAll walks the full DAG reachable from the current heads and
// returns every entry in insertion (clock) order.
func (o *oplog) collectAll(ctx context.Context) ([]hashedEntry, error) {
	o.mu.Lock()
	heads := append([]string(nil), o.heads...)
	o.mu.Unlock()

	visited := make(map[string]*entry)
	queue := append([]string(nil), heads...)
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if _, ok := visited[hash]; ok {
			continue
		}
		var e entry
		if err := o.objectStore.Read(ctx, hash, &e); err != nil {
			return nil, fmt.Errorf("store: collect entry %s: %w", hash, err)
		}
		visited[hash] = &e
		queue = append(queue, e.Next...)
	}

	entries := make([]hashedEntry, 0, len(visited))
	for hash, e := range visited {
		entries = append(entries, hashedEntry{hash: hash, entry: e})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Clock < entries[j].Clock
	})
	return entries, nil
}

func (o *oplog) currentHeads() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.heads...)
}

func (o *oplog) close() error {
	o.broker.Stop()
	if o.onClose != nil {
		o.onClose(context.Background(), o.address)
	}
	return nil
}
