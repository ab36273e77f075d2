/*
Package cache implements the controller's local cache index.

Each directory a controller is pointed at gets one bbolt file
(directory/cache.db); each database opened from that directory gets its own
bucket inside that file, keyed by the database's address string, in which
the store persists its replicated head set. The controller's
"<address>/_manifest" index entries live in a separate "_index" bucket of
the same file, so that reopening a database against the same directory
finds what it left off with without re-fetching anything from its peers.

Manager exists so that multiple Open/Create calls against the same
directory share one bbolt file rather than each locking and polling its own
copy — the same directory-keyed reuse pattern the controller applies to its
object store and pubsub coordinator.
*/
package cache
