/*
Package controller implements the OrbitDB-style controller façade: the
object every other package in driftdb (address, manifest, registry,
cache, migration, accesscontroller, store, pubsub) is assembled behind.

CreateInstance brings a controller up: it derives a peer id from the
object store, opens a keystore and default identity under
<directory>/<peerId>, opens a default cache under the same root, and
listens for direct pubsub messages.

Create and Open implement the two entry points callers use to get a
store: Create always produces a fresh manifest and address; Open accepts
either an address or, with Create:true, forwards to Create with a type.
Both ultimately call _createStore, which resolves the type registry,
resolves or injects the access controller, constructs the store, and
wires its write events back through _onWrite so local writes are
republished on pubsub.

_onMessage, _onPeerConnected, and _onClose are the controller's pubsub
and store lifecycle callbacks: inbound messages are merged into the
matching live store, new peers trigger the head-exchange handshake over a
lazily opened direct channel, and closed stores are removed from the live
map and unsubscribed.

Stop tears the controller down in the documented order: keystore, caches
in parallel, stores sequentially, direct channels, then pubsub.
*/
package controller
