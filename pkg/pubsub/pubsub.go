// Package pubsub implements the pubsub coordinator's default transport: an
// in-process topic broker and loopback direct channels, both satisfying the
// Pubsub/DirectChannel contract a networked transport could replace without
// the controller noticing.
package pubsub

import "context"

// MessageHandler receives heads published by a peer on a subscribed topic.
type MessageHandler func(ctx context.Context, topic string, peerID string, heads []string)

// NewPeerHandler fires once for every other peer currently or newly
// subscribed to a topic this peer has subscribed to, in both directions,
// so the coordinator can drive the head-exchange handshake from either
// side.
type NewPeerHandler func(ctx context.Context, topic string, peerID string)

// DirectMessageHandler receives heads a peer sent over a direct channel for
// a given topic (a database address), outside of the topic's own
// broadcast fan-out.
type DirectMessageHandler func(ctx context.Context, fromPeerID string, topic string, heads []string)

// DirectChannel is a point-to-point channel to exactly one peer, opened
// lazily and cached by peer id. Every Send names the topic (database
// address) the heads belong to, since one channel carries the handshake
// for every database two peers share.
type DirectChannel interface {
	Send(ctx context.Context, topic string, heads []string) error
	Close() error
}

// Pubsub is the coordinator's transport collaborator. Subscribe/Publish
// drive topic-based head announcements; Listen/Connect drive the direct
// channel a peer uses once a handshake has identified who to talk to.
type Pubsub interface {
	Subscribe(ctx context.Context, topic string, onMessage MessageHandler, onNewPeer NewPeerHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Publish(ctx context.Context, topic string, heads []string) error

	// Listen registers this peer's id and the handler direct messages sent
	// to it should be dispatched to. It must be called once before another
	// peer's DirectChannel.Send to this one can succeed.
	Listen(ctx context.Context, peerID string, onMessage DirectMessageHandler) error
	// Connect opens (or returns the cached) DirectChannel to peerID.
	Connect(ctx context.Context, peerID string) (DirectChannel, error)

	Disconnect() error
}
