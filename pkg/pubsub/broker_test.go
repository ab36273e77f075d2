package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFiresNewPeerBothDirections(t *testing.T) {
	net := NewNetwork()
	ctx := context.Background()

	var mu sync.Mutex
	seenByA := []string{}
	seenByB := []string{}

	a := New(net, "peer-a")
	b := New(net, "peer-b")

	err := a.Subscribe(ctx, "db-topic", nil, func(_ context.Context, _ string, peerID string) {
		mu.Lock()
		seenByA = append(seenByA, peerID)
		mu.Unlock()
	})
	require.NoError(t, err, "Subscribe a")

	err = b.Subscribe(ctx, "db-topic", nil, func(_ context.Context, _ string, peerID string) {
		mu.Lock()
		seenByB = append(seenByB, peerID)
		mu.Unlock()
	})
	require.NoError(t, err, "Subscribe b")

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"peer-b"}, seenByA)
	assert.Equal(t, []string{"peer-a"}, seenByB)
}

func TestPublishDeliversToOtherSubscribersNotSelf(t *testing.T) {
	net := NewNetwork()
	ctx := context.Background()

	var mu sync.Mutex
	var received [][]string

	a := New(net, "peer-a")
	b := New(net, "peer-b")

	err := a.Subscribe(ctx, "topic", func(_ context.Context, _ string, _ string, heads []string) {
		mu.Lock()
		received = append(received, heads)
		mu.Unlock()
	}, nil)
	require.NoError(t, err, "Subscribe a")
	require.NoError(t, b.Subscribe(ctx, "topic", nil, nil), "Subscribe b")

	require.NoError(t, b.Publish(ctx, "topic", []string{"head1"}))
	require.NoError(t, a.Publish(ctx, "topic", []string{"head-from-a"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1, "expected a to receive exactly b's publish, got %v", received)
	assert.Equal(t, []string{"head1"}, received[0])
}

func TestConnectIsCachedPerPeer(t *testing.T) {
	net := NewNetwork()
	ctx := context.Background()
	a := New(net, "peer-a")

	ch1, err := a.Connect(ctx, "peer-b")
	require.NoError(t, err, "Connect")
	ch2, err := a.Connect(ctx, "peer-b")
	require.NoError(t, err, "Connect")
	assert.Same(t, ch1, ch2, "expected repeated Connect to the same peer to return the cached channel")
}

// TestDirectChannelDeliversToListener exercises the controller's
// head-exchange handshake at the transport layer: a Connect'd channel
// delivering a Send straight into the target peer's Listen inbox.
func TestDirectChannelDeliversToListener(t *testing.T) {
	net := NewNetwork()
	ctx := context.Background()

	var mu sync.Mutex
	var got []string

	a := New(net, "peer-a")
	b := New(net, "peer-b")

	err := b.Listen(ctx, "peer-b", func(_ context.Context, fromPeerID string, topic string, heads []string) {
		mu.Lock()
		got = heads
		mu.Unlock()
		_ = fromPeerID
		_ = topic
	})
	require.NoError(t, err, "Listen")

	ch, err := a.Connect(ctx, "peer-b")
	require.NoError(t, err, "Connect")
	require.NoError(t, ch.Send(ctx, "/orbitdb/Qmtest/db", []string{"headX"}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"headX"}, got)
}
