/*
Package store implements the store lifecycle manager's concrete database
types.

Every type (EventLog, Feed, KeyValue, Counter, DocStore) is a thin
projection over a shared append-only oplog: entries are content-addressed
through the object store and chained via each entry's Next hashes, forming
a merkle-DAG rather than a flat list once two replicas append concurrently.
The oplog persists only its current head set to the cache (not the
entries themselves, which already live in the object store), so reopening
a store against the same directory and object store reconstructs its full
history by walking back from the persisted heads.

Sync merges a remote head set learned over pubsub into the local one,
fetching any entries not yet known from the object store before accepting
the new head — the store-level half of the head-exchange handshake the
pubsub coordinator drives.
*/
package store
