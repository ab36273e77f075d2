package store

import (
	"context"
	"os"
	"testing"

	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/identity"
	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

type allowAllAccessController struct{}

func (allowAllAccessController) Type() string            { return "test" }
func (allowAllAccessController) CanAppend(_ string) bool { return true }

type testEnv struct {
	objectStore *objectstore.BoltObjectStore
	cacheStore  *cache.Store
	identity    *identity.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir, err := os.MkdirTemp("", "store-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	objStore, err := objectstore.Open(dir)
	if err != nil {
		t.Fatalf("objectstore.Open: %v", err)
	}
	t.Cleanup(func() { objStore.Close() })

	cs, err := cache.Open(dir)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { cs.Close() })

	return &testEnv{objectStore: objStore, cacheStore: cs, identity: &identity.Identity{ID: "tester"}}
}

func (e *testEnv) deps(t *testing.T, address string) Dependencies {
	t.Helper()
	inst, err := e.cacheStore.Instance(address)
	if err != nil {
		t.Fatalf("cache.Instance: %v", err)
	}
	return Dependencies{
		ObjectStore:      e.objectStore,
		Cache:            inst,
		Identity:         e.identity,
		AccessController: allowAllAccessController{},
		Address:          types.Address{Root: "Qmtest", Path: "first"},
	}
}

func TestEventLogAppendAndReopenCollectsInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := NewEventLog(ctx, env.deps(t, "/orbitdb/Qmtest/first"))
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}
	log := first.(*EventLog)

	if _, err := log.Append(ctx, []byte("hello1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := log.Append(ctx, []byte("hello2")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewEventLog(ctx, env.deps(t, "/orbitdb/Qmtest/first"))
	if err != nil {
		t.Fatalf("NewEventLog (reopen): %v", err)
	}
	defer reopened.Close()

	result, err := reopened.(*EventLog).Iterator(ctx, IteratorOptions{Limit: -1})
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	values := result.Collect()
	if len(values) != 2 {
		t.Fatalf("expected 2 entries after reopen, got %d", len(values))
	}
	if string(values[0]) != "hello1" || string(values[1]) != "hello2" {
		t.Errorf("expected [hello1 hello2] in insertion order, got %q", values)
	}
}

func TestFeedAddRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := NewFeed(ctx, env.deps(t, "/orbitdb/Qmtest/feed"))
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}
	feed := s.(*Feed)

	hash, err := feed.Add(ctx, []byte("a"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := feed.Add(ctx, []byte("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := feed.Remove(ctx, hash); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	all, err := feed.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || string(all[0]) != "b" {
		t.Errorf("expected [b] after removing a, got %q", all)
	}
}

func TestKeyValuePutGetDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := NewKeyValue(ctx, env.deps(t, "/orbitdb/Qmtest/kv"))
	if err != nil {
		t.Fatalf("NewKeyValue: %v", err)
	}
	kv := s.(*KeyValue)

	if err := kv.Put(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "a", []byte("2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, ok, err := kv.Get(ctx, "a")
	if err != nil || !ok || string(value) != "2" {
		t.Fatalf("expected a=2, got value=%q ok=%v err=%v", value, ok, err)
	}

	if err := kv.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := kv.Get(ctx, "a"); err != nil || ok {
		t.Fatalf("expected a to be deleted, ok=%v err=%v", ok, err)
	}
}

func TestFeedSyncMergesRemoteHeadsFromSharedObjectStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	replicaA, err := NewFeed(ctx, env.deps(t, "/orbitdb/Qmtest/shared"))
	if err != nil {
		t.Fatalf("NewFeed a: %v", err)
	}
	replicaB, err := NewFeed(ctx, env.deps(t, "/orbitdb/Qmtest/shared"))
	if err != nil {
		t.Fatalf("NewFeed b: %v", err)
	}
	feedA := replicaA.(*Feed)
	feedB := replicaB.(*Feed)

	if _, err := feedA.Add(ctx, []byte("from-a")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := feedB.Sync(ctx, feedA.Heads()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	all, err := feedB.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || string(all[0]) != "from-a" {
		t.Errorf("expected replica b to see [from-a] after sync, got %q", all)
	}
}

func TestCounterIncrementsAccumulate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := NewCounter(ctx, env.deps(t, "/orbitdb/Qmtest/counter"))
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	counter := s.(*Counter)

	if _, err := counter.Inc(ctx, 3); err != nil {
		t.Fatalf("Inc: %v", err)
	}
	total, err := counter.Inc(ctx, 4)
	if err != nil {
		t.Fatalf("Inc: %v", err)
	}
	if total != 7 {
		t.Errorf("expected total=7, got %d", total)
	}
}
