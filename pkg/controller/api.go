package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftdb/driftdb/pkg/migration"
	"github.com/driftdb/driftdb/pkg/pubsub"
	"github.com/driftdb/driftdb/pkg/store"
	"github.com/driftdb/driftdb/pkg/types"
)

const manifestIndexSuffix = "/_manifest"

// Create resolves name+typeTag to a fresh address, fails AlreadyExists if
// the cache index already has that address and opts.Overwrite is false,
// runs migrations, records the cache index entry, and delegates to Open.
func (c *Controller) Create(ctx context.Context, name, typeTag string, opts types.CreateOptions) (store.Store, error) {
	address, err := c._determineAddress(ctx, name, typeTag, opts)
	if err != nil {
		return nil, err
	}

	directory := c.resolveDirectory(opts.Directory)
	index, err := c.cacheIndex(directory)
	if err != nil {
		return nil, fmt.Errorf("controller: open cache index: %w", err)
	}

	key := address.String() + manifestIndexSuffix
	if _, present, err := index.Get(key); err != nil {
		return nil, fmt.Errorf("controller: read cache index: %w", err)
	} else if present && !opts.OverwriteOrDefault() {
		return nil, types.NewError(types.AlreadyExists, fmt.Sprintf("%s already exists", address))
	}

	if err := migration.Run(ctx, migrationDeps{controller: c, directory: directory}, address); err != nil {
		return nil, err
	}

	if err := index.Set(key, []byte(address.Root)); err != nil {
		return nil, fmt.Errorf("controller: record cache index: %w", err)
	}

	return c.Open(ctx, address.String(), types.OpenOptions{CreateOptions: opts})
}

// Open implements the address-or-name branch, the cache-presence and
// localOnly check, manifest read and type-mismatch check, the idempotent
// cache-index record, defaults merging, and delegation to _createStore.
func (c *Controller) Open(ctx context.Context, addressOrName string, opts types.OpenOptions) (store.Store, error) {
	if !types.IsValidAddress(addressOrName) {
		if !opts.Create {
			return nil, types.NewError(types.CreateNotSet, fmt.Sprintf("%q is not a valid address and create was not set", addressOrName))
		}
		if opts.Type == "" {
			return nil, types.NewError(types.TypeMissing, fmt.Sprintf("a type is required to create %q; registered types: %s", addressOrName, strings.Join(c.registry.Tags(), ", ")))
		}
		createOpts := opts.CreateOptions
		if createOpts.Overwrite == nil {
			overwrite := true
			createOpts.Overwrite = &overwrite
		}
		return c.Create(ctx, addressOrName, opts.Type, createOpts)
	}

	address, err := types.ParseAddress(addressOrName)
	if err != nil {
		return nil, err
	}

	directory := c.resolveDirectory(opts.Directory)
	index, err := c.cacheIndex(directory)
	if err != nil {
		return nil, fmt.Errorf("controller: open cache index: %w", err)
	}

	key := address.String() + manifestIndexSuffix
	_, present, err := index.Get(key)
	if err != nil {
		return nil, fmt.Errorf("controller: read cache index: %w", err)
	}
	if opts.LocalOnly && !present {
		return nil, types.NewError(types.NotFoundLocally, fmt.Sprintf("%s has no local cache entry", address))
	}

	manifest, err := readManifest(ctx, c.objectStore, address.Root)
	if err != nil {
		return nil, fmt.Errorf("controller: read manifest: %w", err)
	}
	if opts.Type != "" && manifest.Type != opts.Type {
		return nil, types.NewError(types.TypeMismatch, fmt.Sprintf("manifest type %q does not match requested type %q", manifest.Type, opts.Type))
	}

	if err := index.Set(key, []byte(address.Root)); err != nil {
		return nil, fmt.Errorf("controller: record cache index: %w", err)
	}

	merged := opts.CreateOptions
	if opts.MergeDefaults {
		merged.Defaults = mergeManifestDefaults(merged.Defaults, manifest.Defaults)
	}
	merged.AccessControllerAddress = manifest.AccessController

	return c._createStore(ctx, manifest.Type, address, types.OpenOptions{CreateOptions: merged, Create: opts.Create, MergeDefaults: opts.MergeDefaults}, directory)
}

// Stop closes every live resource in the documented order: keystore,
// caches (in parallel), stores (sequentially, removed from the live map as
// they close), direct channels, then pubsub. Safe to call when nothing is
// open.
func (c *Controller) Stop(ctx context.Context) error {
	if err := c.keystore.Close(); err != nil {
		return fmt.Errorf("controller: close keystore: %w", err)
	}

	if err := c.cacheManager.CloseAll(); err != nil {
		return fmt.Errorf("controller: close caches: %w", err)
	}

	c.mu.Lock()
	stores := make([]store.Store, 0, len(c.stores))
	for _, s := range c.stores {
		stores = append(stores, s)
	}
	c.stores = make(map[string]store.Store)
	channels := make(map[string]pubsub.DirectChannel, len(c.directChannels))
	for peerID, ch := range c.directChannels {
		channels[peerID] = ch
	}
	c.directChannels = make(map[string]pubsub.DirectChannel)
	c.mu.Unlock()

	for _, s := range stores {
		if err := s.Close(); err != nil {
			return fmt.Errorf("controller: close store %s: %w", s.Address(), err)
		}
	}

	for peerID, ch := range channels {
		if err := ch.Close(); err != nil {
			return fmt.Errorf("controller: close direct channel to %s: %w", peerID, err)
		}
	}

	if c.pubsub != nil {
		if err := c.pubsub.Disconnect(); err != nil {
			return fmt.Errorf("controller: disconnect pubsub: %w", err)
		}
	}
	return nil
}

// Feed opens or creates a feed-type database by name.
func (c *Controller) Feed(ctx context.Context, name string, opts types.OpenOptions) (store.Store, error) {
	return c.openTyped(ctx, name, "feed", opts)
}

// Log opens or creates an eventlog-type database by name.
func (c *Controller) Log(ctx context.Context, name string, opts types.OpenOptions) (store.Store, error) {
	return c.openTyped(ctx, name, "eventlog", opts)
}

// KeyValue opens or creates a keyvalue-type database by name.
func (c *Controller) KeyValue(ctx context.Context, name string, opts types.OpenOptions) (store.Store, error) {
	return c.openTyped(ctx, name, "keyvalue", opts)
}

// Counter opens or creates a counter-type database by name.
func (c *Controller) Counter(ctx context.Context, name string, opts types.OpenOptions) (store.Store, error) {
	return c.openTyped(ctx, name, "counter", opts)
}

// Docs opens or creates a docstore-type database by name.
func (c *Controller) Docs(ctx context.Context, name string, opts types.OpenOptions) (store.Store, error) {
	return c.openTyped(ctx, name, "docstore", opts)
}

func (c *Controller) openTyped(ctx context.Context, name, typeTag string, opts types.OpenOptions) (store.Store, error) {
	opts.Create = true
	opts.Type = typeTag
	return c.Open(ctx, name, opts)
}
