package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/driftdb/driftdb/pkg/store"
	"github.com/driftdb/driftdb/pkg/types"
)

func noopConstructor(ctx context.Context, deps store.Dependencies) (store.Store, error) {
	return nil, nil
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	if err := r.Register("widget", noopConstructor); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Resolve("widget"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestRegisterRejectsDuplicateTag(t *testing.T) {
	r := New()
	if err := r.Register("widget", noopConstructor); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register("widget", noopConstructor)
	if !errors.Is(err, types.Sentinel(types.AlreadyExists)) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestResolveMissingTagEnumeratesTags(t *testing.T) {
	r := New()
	r.Register("a", noopConstructor)
	r.Register("b", noopConstructor)

	_, err := r.Resolve("c")
	if !errors.Is(err, types.Sentinel(types.TypeMissing)) {
		t.Fatalf("expected TypeMissing, got %v", err)
	}
	if err.Error() == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestDefaultRegistryHasBuiltinTypes(t *testing.T) {
	tags := Default().Tags()
	want := []string{"eventlog", "feed", "keyvalue", "counter", "docstore"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d built-in types, got %d: %v", len(want), len(tags), tags)
	}
	for i, tag := range want {
		if tags[i] != tag {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], tag)
		}
	}
}
