// Package controller implements the OrbitDB-style controller: the object
// that resolves names to addresses, creates and opens stores, wires them to
// the pubsub overlay, and owns their lifecycle.
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/identity"
	"github.com/driftdb/driftdb/pkg/log"
	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/pubsub"
	"github.com/driftdb/driftdb/pkg/registry"
	"github.com/driftdb/driftdb/pkg/store"
	"github.com/driftdb/driftdb/pkg/types"
)

// defaultDirectory mirrors the grounding CLI's default data directory
// convention, retargeted to driftdb's own name.
const defaultDirectory = "./driftdb"

// Options configures createInstance. Every field is optional; a zero value
// gets a usable default so the controller is runnable with no external
// wiring in tests and examples.
type Options struct {
	Directory     string
	ObjectStore   objectstore.ObjectStore
	Pubsub        pubsub.Pubsub
	Registry      *registry.Registry
	IdentityID    string
	EncryptionKey []byte // 32 bytes; derived from the peer id if absent or not 32 bytes
}

// Controller is a live instance: identity, object-store client, pubsub
// client, directory root, keystore, and the live mappings described by the
// data model — address to live store, peer id to direct channel, directory
// to cache.
type Controller struct {
	directory        string
	peerID           string
	objectStore      objectstore.ObjectStore
	pubsub           pubsub.Pubsub
	keystore         *identity.Keystore
	identityProvider *identity.Provider
	identity         *identity.Identity
	registry         *registry.Registry
	cacheManager     *cache.Manager

	mu             sync.Mutex
	stores         map[string]store.Store
	directChannels map[string]pubsub.DirectChannel
}

// CreateInstance brings up a controller: derives the peer id from the
// object store, ensures the data directory, constructs a default object
// store when none is supplied, opens a keystore and default identity under
// <directory>/<peerId>, and opens a default cache under the same root.
func CreateInstance(ctx context.Context, opts Options) (*Controller, error) {
	directory := opts.Directory
	if directory == "" {
		directory = defaultDirectory
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("controller: create directory: %w", err)
	}

	objStore := opts.ObjectStore
	if objStore == nil {
		var err error
		objStore, err = objectstore.Open(filepath.Join(directory, "objectstore"))
		if err != nil {
			return nil, fmt.Errorf("controller: default object store: %w", err)
		}
	}
	peerID := objStore.ID()

	encryptionKey := opts.EncryptionKey
	keystoreDir := filepath.Join(directory, peerID, "keystore")
	var keystore *identity.Keystore
	var err error
	if len(encryptionKey) == 32 {
		keystore, err = identity.OpenKeystore(keystoreDir, encryptionKey)
	} else {
		keystore, err = identity.KeystoreFromPassword(keystoreDir, "driftdb:"+peerID)
	}
	if err != nil {
		return nil, fmt.Errorf("controller: open keystore: %w", err)
	}

	identityProvider := identity.NewProvider(keystore)
	identityID := opts.IdentityID
	if identityID == "" {
		identityID = peerID
	}
	ident, err := identityProvider.CreateIdentity(identity.CreateIdentityOptions{ID: identityID})
	if err != nil {
		keystore.Close()
		return nil, fmt.Errorf("controller: create identity: %w", err)
	}

	cacheManager := cache.NewManager()
	if _, err := cacheManager.Open(filepath.Join(directory, peerID, "cache")); err != nil {
		keystore.Close()
		return nil, fmt.Errorf("controller: default cache: %w", err)
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	ps := opts.Pubsub
	if ps == nil {
		ps = pubsub.New(pubsub.Default(), peerID)
	}

	c := &Controller{
		directory:        directory,
		peerID:           peerID,
		objectStore:      objStore,
		pubsub:           ps,
		keystore:         keystore,
		identityProvider: identityProvider,
		identity:         ident,
		registry:         reg,
		cacheManager:     cacheManager,
		stores:           make(map[string]store.Store),
		directChannels:   make(map[string]pubsub.DirectChannel),
	}

	if err := ps.Listen(ctx, peerID, c.onDirectMessage); err != nil {
		return nil, fmt.Errorf("controller: listen on pubsub: %w", err)
	}

	lg := log.WithComponent("controller")
	lg.Info().Str("peer_id", peerID).Str("directory", directory).Msg("controller started")
	return c, nil
}

// Directory returns the directory the controller was created with. It
// satisfies migration.Dependencies for the default, no-options-override
// case.
func (c *Controller) Directory() string { return c.directory }

// PeerID returns this controller's peer id, derived from its object store.
func (c *Controller) PeerID() string { return c.peerID }

// Identity returns the controller's default identity.
func (c *Controller) Identity() *identity.Identity { return c.identity }

func (c *Controller) resolveDirectory(override string) string {
	if override != "" {
		return override
	}
	return c.directory
}

// cacheIndex returns the bucket the controller records "<address>/_manifest"
// presence entries in for directory, distinct from the per-database bucket
// a store's own oplog persists its heads under.
func (c *Controller) cacheIndex(directory string) (cache.Cache, error) {
	cacheStore, err := c.cacheManager.Open(directory)
	if err != nil {
		return nil, err
	}
	return cacheStore.Instance("_index")
}

// cacheFor returns the per-database cache bucket a store's oplog reads and
// writes its head set through.
func (c *Controller) cacheFor(directory string, address types.Address) (cache.Cache, error) {
	cacheStore, err := c.cacheManager.Open(directory)
	if err != nil {
		return nil, err
	}
	return cacheStore.Instance(address.String())
}

// resolveIdentity returns the controller's default identity, or a distinct
// one derived from the same keystore when identityID names a different id.
func (c *Controller) resolveIdentity(identityID string) (*identity.Identity, error) {
	if identityID == "" || identityID == c.identity.ID {
		return c.identity, nil
	}
	return c.identityProvider.CreateIdentity(identity.CreateIdentityOptions{ID: identityID})
}
