package pubsub

import (
	"context"
	"sync"

	"github.com/driftdb/driftdb/pkg/log"
	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/types"
)

// inboxSize bounds each subscriber's and listener's buffered inbox: enough
// to absorb a burst of head announcements without a slow peer blocking the
// publisher.
const inboxSize = 32

type topicMessage struct {
	topic  string
	peerID string
	heads  []string
}

type topicSubscription struct {
	peerID    string
	inbox     chan topicMessage
	onMessage MessageHandler
	onNewPeer NewPeerHandler
	stop      chan struct{}
}

type directEndpoint struct {
	peerID    string
	inbox     chan topicMessage
	onMessage DirectMessageHandler
	stop      chan struct{}
}

// Network is the shared medium a set of in-process TopicBrokers publish and
// subscribe through. Every driftdb process in a test or a single-binary
// deployment normally shares one Network via the package-level Default.
type Network struct {
	mu     sync.RWMutex
	topics map[string]map[string]*topicSubscription // topic -> peerID -> subscription
	peers  map[string]*directEndpoint               // peerID -> listener
}

// NewNetwork returns an empty, isolated Network. Tests that want peers to
// not see each other's traffic construct their own instead of sharing
// Default().
func NewNetwork() *Network {
	return &Network{
		topics: make(map[string]map[string]*topicSubscription),
		peers:  make(map[string]*directEndpoint),
	}
}

var defaultNetwork = NewNetwork()

// Default returns the process-wide in-process Network.
func Default() *Network { return defaultNetwork }

// TopicBroker is the default Pubsub implementation: topic fan-out and
// direct messaging over a shared in-process Network, with one
// sync.Mutex-guarded DirectChannel cache per broker so repeated Connect
// calls to the same peer converge on a single channel.
type TopicBroker struct {
	network *Network
	peerID  string

	mu   sync.Mutex
	subs map[string]*topicSubscription
	out  map[string]*loopbackChannel
}

// New returns a TopicBroker for peerID backed by network. Pass
// pubsub.Default() to join the process-wide network, or pubsub.NewNetwork()
// to isolate a test.
func New(network *Network, peerID string) *TopicBroker {
	return &TopicBroker{
		network: network,
		peerID:  peerID,
		subs:    make(map[string]*topicSubscription),
		out:     make(map[string]*loopbackChannel),
	}
}

func (b *TopicBroker) Subscribe(ctx context.Context, topic string, onMessage MessageHandler, onNewPeer NewPeerHandler) error {
	sub := &topicSubscription{
		peerID:    b.peerID,
		inbox:     make(chan topicMessage, inboxSize),
		onMessage: onMessage,
		onNewPeer: onNewPeer,
		stop:      make(chan struct{}),
	}

	b.mu.Lock()
	if _, exists := b.subs[topic]; exists {
		b.mu.Unlock()
		return types.NewError(types.AlreadyExists, "already subscribed to topic "+topic)
	}
	b.subs[topic] = sub
	b.mu.Unlock()

	b.network.mu.Lock()
	peers, ok := b.network.topics[topic]
	if !ok {
		peers = make(map[string]*topicSubscription)
		b.network.topics[topic] = peers
	}
	others := make([]*topicSubscription, 0, len(peers))
	for _, other := range peers {
		others = append(others, other)
	}
	peers[b.peerID] = sub
	b.network.mu.Unlock()

	go b.pump(ctx, sub)

	for _, other := range others {
		if other.onNewPeer != nil {
			go other.onNewPeer(ctx, topic, b.peerID)
		}
		if sub.onNewPeer != nil {
			go sub.onNewPeer(ctx, topic, other.peerID)
		}
	}
	return nil
}

func (b *TopicBroker) pump(ctx context.Context, sub *topicSubscription) {
	for {
		select {
		case msg := <-sub.inbox:
			metrics.PubsubMessagesReceived.WithLabelValues("broadcast").Inc()
			if sub.onMessage != nil {
				sub.onMessage(ctx, msg.topic, msg.peerID, msg.heads)
			}
		case <-sub.stop:
			return
		}
	}
}

func (b *TopicBroker) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	sub, ok := b.subs[topic]
	if ok {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}
	close(sub.stop)

	b.network.mu.Lock()
	if peers, ok := b.network.topics[topic]; ok {
		delete(peers, b.peerID)
		if len(peers) == 0 {
			delete(b.network.topics, topic)
		}
	}
	b.network.mu.Unlock()
	return nil
}

func (b *TopicBroker) Publish(ctx context.Context, topic string, heads []string) error {
	b.network.mu.RLock()
	peers := b.network.topics[topic]
	targets := make([]*topicSubscription, 0, len(peers))
	for peerID, sub := range peers {
		if peerID == b.peerID {
			continue
		}
		targets = append(targets, sub)
	}
	b.network.mu.RUnlock()

	msg := topicMessage{topic: topic, peerID: b.peerID, heads: heads}
	for _, sub := range targets {
		select {
		case sub.inbox <- msg:
			metrics.PubsubMessagesSent.WithLabelValues("broadcast").Inc()
		default:
			log.Warn("pubsub: peer inbox full on topic " + topic + ", dropping message to " + sub.peerID)
		}
	}
	return nil
}

func (b *TopicBroker) Listen(ctx context.Context, peerID string, onMessage DirectMessageHandler) error {
	ep := &directEndpoint{
		peerID:    peerID,
		inbox:     make(chan topicMessage, inboxSize),
		onMessage: onMessage,
		stop:      make(chan struct{}),
	}

	b.network.mu.Lock()
	b.network.peers[peerID] = ep
	b.network.mu.Unlock()

	go func() {
		for {
			select {
			case msg := <-ep.inbox:
				metrics.PubsubMessagesReceived.WithLabelValues("direct").Inc()
				if ep.onMessage != nil {
					ep.onMessage(ctx, msg.peerID, msg.topic, msg.heads)
				}
			case <-ep.stop:
				return
			}
		}
	}()
	return nil
}

// Connect returns the cached DirectChannel to peerID, opening one if this
// is the first Connect call for that peer.
func (b *TopicBroker) Connect(ctx context.Context, peerID string) (DirectChannel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.out[peerID]; ok {
		return ch, nil
	}
	ch := &loopbackChannel{network: b.network, fromPeerID: b.peerID, toPeerID: peerID}
	b.out[peerID] = ch
	metrics.PeersConnected.Inc()
	return ch, nil
}

func (b *TopicBroker) Disconnect() error {
	b.mu.Lock()
	for topic, sub := range b.subs {
		close(sub.stop)
		b.network.mu.Lock()
		if peers, ok := b.network.topics[topic]; ok {
			delete(peers, b.peerID)
		}
		b.network.mu.Unlock()
	}
	b.subs = make(map[string]*topicSubscription)
	metrics.PeersConnected.Sub(float64(len(b.out)))
	b.out = make(map[string]*loopbackChannel)
	b.mu.Unlock()

	b.network.mu.Lock()
	if ep, ok := b.network.peers[b.peerID]; ok {
		close(ep.stop)
		delete(b.network.peers, b.peerID)
	}
	b.network.mu.Unlock()
	return nil
}

// loopbackChannel delivers Send calls directly into the target peer's
// Listen inbox. Send returns a NotFoundLocally error if the target never
// called Listen; a message to a full inbox is dropped without an error.
type loopbackChannel struct {
	network    *Network
	fromPeerID string
	toPeerID   string
}

func (c *loopbackChannel) Send(ctx context.Context, topic string, heads []string) error {
	c.network.mu.RLock()
	ep, ok := c.network.peers[c.toPeerID]
	c.network.mu.RUnlock()
	if !ok {
		return types.NewError(types.NotFoundLocally, "peer "+c.toPeerID+" is not listening")
	}

	select {
	case ep.inbox <- topicMessage{topic: topic, peerID: c.fromPeerID, heads: heads}:
		metrics.PubsubMessagesSent.WithLabelValues("direct").Inc()
	default:
		log.Warn("pubsub: direct channel inbox full, dropping message to " + c.toPeerID)
	}
	return nil
}

func (c *loopbackChannel) Close() error { return nil }
