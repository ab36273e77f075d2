package objectstore

import (
	"context"
	"os"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "objectstore-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	type manifest struct {
		Name string `refmt:"name"`
		Type string `refmt:"type"`
	}

	ctx := context.Background()
	hash, err := store.Write(ctx, &manifest{Name: "first", Type: "eventlog"}, false)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	var out manifest
	if err := store.Read(ctx, hash, &out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.Name != "first" || out.Type != "eventlog" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestWriteOnlyHashSkipsPersistence(t *testing.T) {
	dir, err := os.MkdirTemp("", "objectstore-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	value := map[string]string{"name": "second"}
	hash, err := store.Write(ctx, value, true)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	var out map[string]string
	if err := store.Read(ctx, hash, &out); err == nil {
		t.Fatal("expected Read to fail for an only-hash write")
	}
}

func TestIDStableAcrossReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "objectstore-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := store.ID()
	store.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.ID() != id {
		t.Errorf("ID changed across reopen: %q != %q", reopened.ID(), id)
	}
}
