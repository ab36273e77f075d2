// Package objectstore implements the content-addressed storage collaborator
// the controller writes manifests, access-controller descriptors, and store
// log entries through.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	cbornode "github.com/ipfs/go-ipld-cbor"
	mh "github.com/multiformats/go-multihash"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketObjects = []byte("objects")
	bucketMeta    = []byte("meta")
	metaKeyID     = []byte("id")
)

// ObjectStore is the content-addressed storage interface consumed by the
// manifest writer, the access-controller bridge, and every store type's
// append-only log.
type ObjectStore interface {
	// Read fetches the dag-cbor encoded object stored under hash and decodes
	// it into out, which must be a pointer.
	Read(ctx context.Context, hash string, out interface{}) error
	// Write encodes value as dag-cbor and persists it, returning its content
	// hash. When onlyHash is true the hash is computed but the object is
	// never written.
	Write(ctx context.Context, value interface{}, onlyHash bool) (string, error)
	// ID returns a stable identifier for this object store instance.
	ID() string
	Close() error
}

// BoltObjectStore is the default ObjectStore backed by a single bbolt file.
// It mirrors the open/bucket/Get/Put/Close shape the rest of driftdb's local
// storage uses.
type BoltObjectStore struct {
	db *bolt.DB
	id string
}

// Open opens (creating if absent) a bbolt-backed object store rooted at
// directory/objects.db.
func Open(directory string) (*BoltObjectStore, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create directory: %w", err)
	}
	dbPath := filepath.Join(directory, "objects.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("objectstore: open %s: %w", dbPath, err)
	}

	var id string
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketObjects); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if existing := meta.Get(metaKeyID); existing != nil {
			id = string(existing)
			return nil
		}
		id, err = newPeerID()
		if err != nil {
			return err
		}
		return meta.Put(metaKeyID, []byte(id))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("objectstore: init: %w", err)
	}

	return &BoltObjectStore{db: db, id: id}, nil
}

// ID returns the stable id generated the first time this store's directory
// was opened.
func (s *BoltObjectStore) ID() string {
	return s.id
}

// Close closes the underlying bbolt file.
func (s *BoltObjectStore) Close() error {
	return s.db.Close()
}

// Write dag-cbor encodes value, derives its CID using a sha2-256 multihash,
// and (unless onlyHash) stores the raw bytes keyed by the CID's string form.
func (s *BoltObjectStore) Write(ctx context.Context, value interface{}, onlyHash bool) (string, error) {
	node, err := cbornode.WrapObject(value, mh.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("objectstore: encode: %w", err)
	}
	hash := node.Cid().String()
	if onlyHash {
		return hash, nil
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		return b.Put([]byte(hash), node.RawData())
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: write %s: %w", hash, err)
	}
	return hash, nil
}

// Read looks up hash and decodes its dag-cbor payload into out. hash must
// parse as a CID: callers that hand back a remote peer's head set pass
// untrusted strings, and a malformed one should fail fast here rather than
// as a confusing bbolt miss.
func (s *BoltObjectStore) Read(ctx context.Context, hash string, out interface{}) error {
	if _, err := cid.Decode(hash); err != nil {
		return fmt.Errorf("objectstore: invalid hash %q: %w", hash, err)
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketObjects)
		data := b.Get([]byte(hash))
		if data == nil {
			return fmt.Errorf("objectstore: object not found: %s", hash)
		}
		raw = append(raw, data...)
		return nil
	})
	if err != nil {
		return err
	}

	return cbornode.DecodeInto(raw, out)
}
