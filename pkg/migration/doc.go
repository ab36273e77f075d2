/*
Package migration implements the migration runner the controller calls
from every Create, before the store is opened: a fixed, ordered,
idempotent sequence of on-disk upgrades.

Each Migration is a pure function of (deps, address) where deps is the
narrow slice of controller state a migration needs — the data directory
and the ability to reach the cache instance a store at that address will
read from. Migrations never see the store, the object store, or pubsub:
there is nothing for them to upgrade there, only the directory layout
underneath.

Run applies every registered migration in order and stops at the first
failure, per the "fails the whole create/open call" contract: a half
applied schema upgrade is worse than refusing to open.
*/
package migration
