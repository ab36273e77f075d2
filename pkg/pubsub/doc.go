/*
Package pubsub implements the controller's default transport: an
in-process topic broker for per-database head announcements and loopback
DirectChannels for point-to-point exchanges.

A TopicBroker joins a shared Network (pubsub.Default(), or a private
pubsub.NewNetwork() in tests) under a peer id. Subscribe registers this
peer on a topic and fires onNewPeer, in both directions, for every other
peer already on or newly joining that topic — the controller uses this
signal to kick off a head-exchange handshake without the transport
knowing anything about heads, manifests, or oplogs.

Publish fans a message out to every other subscriber on a topic through a
buffered per-subscriber channel, the same non-blocking-send-or-drop shape
as pkg/events.Broker's fan-out to subscribers; a slow peer loses messages rather than
stalling the publisher.

Listen/Connect implement the direct side: a peer calls Listen once to
register the handler for messages addressed to it, and any other peer's
Connect(peerID) returns a DirectChannel whose Send writes straight into
that peer's inbox. TopicBroker caches the channel it returns per peer id
behind a mutex, so two concurrent handshakes with the same peer converge
on one channel rather than racing to open two.

A networked implementation (libp2p pubsub, NATS, whatever) would replace
this file without the controller needing to change; the Pubsub and
DirectChannel interfaces are the only contract it depends on.
*/
package pubsub
