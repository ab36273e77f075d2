// Package store implements the store lifecycle manager's concrete store
// types: the per-database append-only logs the controller creates, closes,
// and synchronizes over pubsub.
package store

import (
	"context"

	"github.com/driftdb/driftdb/pkg/accesscontroller"
	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/identity"
	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

// Store is the capability set every database type exposes to the
// controller: its address, its event stream, a way to close it, and a way
// to merge in heads learned from a peer over pubsub.
type Store interface {
	Address() types.Address
	Type() string
	Events() *events.Broker
	Close() error
	// Sync merges remoteHeads (entry hashes) into the local log, fetching
	// any entries not yet known from the object store.
	Sync(ctx context.Context, remoteHeads []string) error
	// Heads returns the current set of head entry hashes, the value the
	// pubsub coordinator publishes on write.
	Heads() []string
}

// Dependencies bundles everything a Constructor needs to bring a store
// instance up. The controller assembles one per open/create call.
type Dependencies struct {
	ObjectStore      objectstore.ObjectStore
	Cache            cache.Cache
	Identity         *identity.Identity
	AccessController accesscontroller.AccessController
	Address          types.Address
	Options          types.OpenOptions
	// OnClose is invoked once, after the store's own teardown completes, so
	// the controller can unsubscribe and remove the address from its live
	// map. Nil in tests that construct a store directly.
	OnClose func(ctx context.Context, address types.Address)
}

// Constructor builds a Store instance for one database. The registry maps
// manifest type tags to Constructors.
type Constructor func(ctx context.Context, deps Dependencies) (Store, error)
