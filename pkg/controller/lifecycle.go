package controller

import (
	"context"
	"fmt"

	"github.com/driftdb/driftdb/pkg/accesscontroller"
	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/events"
	"github.com/driftdb/driftdb/pkg/log"
	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/pubsub"
	"github.com/driftdb/driftdb/pkg/store"
	"github.com/driftdb/driftdb/pkg/types"
)

// migrationDeps adapts one create/open call's resolved directory to
// migration.Dependencies without exposing the whole Controller to the
// migration runner.
type migrationDeps struct {
	controller *Controller
	directory  string
}

func (d migrationDeps) Directory() string { return d.directory }

func (d migrationDeps) CacheFor(address types.Address) (cache.Cache, error) {
	return d.controller.cacheFor(d.directory, address)
}

// _createStore resolves typeTag via the registry, resolves or injects the
// access controller, constructs the store with a merged option bag,
// registers it under address.String(), wires its write events back to the
// controller, and subscribes it on pubsub when replication is enabled.
func (c *Controller) _createStore(ctx context.Context, typeTag string, address types.Address, opts types.OpenOptions, directory string) (store.Store, error) {
	ctor, err := c.registry.Resolve(typeTag)
	if err != nil {
		return nil, types.NewError(types.InvalidType, fmt.Sprintf("Invalid database type '%s'", typeTag))
	}

	var ac accesscontroller.AccessController
	if opts.AccessControllerAddress != "" {
		ac, err = accesscontroller.Resolve(ctx, c.objectStore, opts.AccessControllerAddress)
		if err != nil {
			return nil, fmt.Errorf("controller: resolve access controller: %w", err)
		}
	}

	ident, err := c.resolveIdentity(opts.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("controller: resolve identity: %w", err)
	}

	dbCache, err := c.cacheFor(directory, address)
	if err != nil {
		return nil, fmt.Errorf("controller: open cache: %w", err)
	}

	deps := store.Dependencies{
		ObjectStore:      c.objectStore,
		Cache:            dbCache,
		Identity:         ident,
		AccessController: ac,
		Address:          address,
		Options:          opts,
		OnClose:          c._onClose,
	}

	s, err := ctor(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("controller: construct store: %w", err)
	}

	go c.watchWrites(address, s)

	c.mu.Lock()
	c.stores[address.String()] = s
	c.mu.Unlock()
	metrics.StoresOpened.WithLabelValues(typeTag).Inc()
	metrics.StoresOpenGauge.Inc()

	if opts.ReplicateOrDefault() && c.pubsub != nil {
		topic := address.String()
		onMessage := func(ctx context.Context, gotTopic, peerID string, heads []string) {
			c._onMessage(ctx, gotTopic, heads)
		}
		onNewPeer := func(ctx context.Context, gotTopic, peerID string) {
			c._onPeerConnected(ctx, gotTopic, peerID)
		}
		if err := c.pubsub.Subscribe(ctx, topic, onMessage, onNewPeer); err != nil {
			return nil, fmt.Errorf("controller: subscribe pubsub: %w", err)
		}
	}

	return s, nil
}

// watchWrites forwards every EventWriteCommitted the store emits to
// _onWrite, for as long as the store's event broker is alive.
func (c *Controller) watchWrites(address types.Address, s store.Store) {
	sub := s.Events().Subscribe()
	for event := range sub {
		if event.Type != events.EventWriteCommitted {
			continue
		}
		if err := c._onWrite(address, s.Heads()); err != nil {
			lg := log.WithAddress(address.String())
			lg.Error().Err(err).Msg("write event handling failed")
		}
	}
}

// _onWrite republishes heads on pubsub. It fails with InvariantViolation if
// heads is empty, since a committed write always leaves at least one head.
func (c *Controller) _onWrite(address types.Address, heads []string) error {
	if len(heads) == 0 {
		return types.NewError(types.InvariantViolation, "write event with no heads for "+address.String())
	}
	if c.pubsub == nil {
		return nil
	}
	return c.pubsub.Publish(context.Background(), address.String(), heads)
}

// _onMessage looks up the live store at topic and merges heads into it.
// Sync errors are logged and swallowed: a malformed or stale remote
// message must never crash the controller.
func (c *Controller) _onMessage(ctx context.Context, topic string, heads []string) {
	if len(heads) == 0 {
		return
	}
	c.mu.Lock()
	s, ok := c.stores[topic]
	c.mu.Unlock()
	if !ok {
		return
	}
	if err := s.Sync(ctx, heads); err != nil {
		lg := log.WithAddress(topic)
		lg.Warn().Err(err).Msg("sync from peer failed")
	}
}

// _onPeerConnected performs the head-exchange handshake: open (or reuse)
// a direct channel to peer, send the local store's current heads, and
// record the channel under peer's id.
func (c *Controller) _onPeerConnected(ctx context.Context, topic string, peerID string) {
	c.mu.Lock()
	s, ok := c.stores[topic]
	c.mu.Unlock()
	if !ok {
		return
	}

	channel, err := c.pubsub.Connect(ctx, peerID)
	if err != nil {
		lg := log.WithPeerID(peerID)
		lg.Warn().Err(err).Msg("head exchange: connect failed")
		return
	}

	c.mu.Lock()
	_, known := c.directChannels[peerID]
	c.directChannels[peerID] = channel
	c.mu.Unlock()
	if !known {
		s.Events().Publish(&events.Event{Type: events.EventPeerConnected, Message: peerID, Metadata: map[string]string{"address": topic}})
	}

	if err := channel.Send(ctx, topic, s.Heads()); err != nil {
		lg := log.WithPeerID(peerID)
		lg.Warn().Err(err).Msg("head exchange: send failed")
	}
}

// onDirectMessage is the controller's pubsub.DirectMessageHandler: heads a
// peer sent over a direct channel are merged exactly like a topic message.
func (c *Controller) onDirectMessage(ctx context.Context, fromPeerID string, topic string, heads []string) {
	c._onMessage(ctx, topic, heads)
}

// _onClose unsubscribes topic and removes its store from the live map. It
// is idempotent: closing an address that isn't registered is a no-op.
func (c *Controller) _onClose(ctx context.Context, address types.Address) {
	topic := address.String()

	c.mu.Lock()
	_, ok := c.stores[topic]
	delete(c.stores, topic)
	c.mu.Unlock()
	if !ok {
		return
	}
	metrics.StoresOpenGauge.Dec()

	if c.pubsub != nil {
		if err := c.pubsub.Unsubscribe(ctx, topic); err != nil {
			lg := log.WithAddress(topic)
			lg.Warn().Err(err).Msg("unsubscribe failed")
		}
	}
}

var _ pubsub.DirectMessageHandler = (*Controller)(nil).onDirectMessage
