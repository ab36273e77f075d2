// Package cache implements the controller's local cache index: a bbolt-backed
// key-value store that records, per directory, which addresses are known
// locally and what each one's manifest hash and head set are.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/driftdb/driftdb/pkg/metrics"
)

// Cache is the per-database key-value handle the controller reads and
// writes manifest hashes, head sets, and access-controller bindings
// through.
type Cache interface {
	// Get returns the value stored under key, and false if no value has
	// been set.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Close() error
}

// Store is a bbolt file holding one bucket per database instance that has
// ever been opened against the same directory.
type Store struct {
	db *bolt.DB
	mu sync.Mutex
}

// Open opens (creating if absent) the cache file at directory/cache.db.
func Open(directory string) (*Store, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	dbPath := filepath.Join(directory, "cache.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Instance returns a Cache scoped to bucket, creating it if this is the
// first time this database has been cached under this directory.
func (s *Store) Instance(bucket string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cache: create bucket %s: %w", bucket, err)
	}
	return &instance{store: s, bucket: []byte(bucket)}, nil
}

type instance struct {
	store  *Store
	bucket []byte
}

func (i *instance) Get(key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := i.store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(i.bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		value = append(value, data...)
		return nil
	})
	if err == nil {
		if found {
			metrics.CacheHits.Inc()
		} else {
			metrics.CacheMisses.Inc()
		}
	}
	return value, found, err
}

func (i *instance) Set(key string, value []byte) error {
	return i.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(i.bucket)
		return b.Put([]byte(key), value)
	})
}

// Close is a no-op: the bucket shares the lifetime of the Store it was
// created from.
func (i *instance) Close() error {
	return nil
}
