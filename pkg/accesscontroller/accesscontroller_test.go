package accesscontroller

import (
	"context"
	"os"
	"testing"

	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

func TestCreateResolveCanAppend(t *testing.T) {
	dir, err := os.MkdirTemp("", "accesscontroller-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := objectstore.Open(dir)
	if err != nil {
		t.Fatalf("objectstore.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	spec := types.AccessControllerSpec{Type: "ipfs", Write: []string{"alice"}, Read: []string{"bob"}}
	path, err := Create(ctx, store, spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ac, err := Resolve(ctx, store, path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ac.CanAppend("alice") {
		t.Error("expected alice to be allowed to append")
	}
	if ac.CanAppend("bob") {
		t.Error("expected bob (read-only) to not be allowed to append")
	}
	if ac.CanAppend("mallory") {
		t.Error("expected an unlisted identity to not be allowed to append")
	}
}

func TestCreateRejectsEmptyWriteList(t *testing.T) {
	dir, err := os.MkdirTemp("", "accesscontroller-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := objectstore.Open(dir)
	if err != nil {
		t.Fatalf("objectstore.Open: %v", err)
	}
	defer store.Close()

	_, err = Create(context.Background(), store, types.AccessControllerSpec{})
	if err == nil {
		t.Fatal("expected an error for an empty write list")
	}
}
