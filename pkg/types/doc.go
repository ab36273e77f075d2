/*
Package types defines the core data structures shared across driftdb's
controller, store, pubsub, and cache packages.

This package contains driftdb's domain model: the immutable Address and
Manifest values that identify a database, the per-call option bags passed
into Create/Open, and the error kinds the controller surfaces to callers.
Because nearly every other package in this module needs these types, they
live here rather than in the packages that produce or consume them, which
keeps the dependency graph acyclic.

# Core Types

Addressing:
  - Address: the immutable (prefix, root, path) triple identifying a database
  - Manifest: the immutable, content-addressed descriptor of a database

Options:
  - CreateOptions: options accepted by Create
  - OpenOptions: options accepted by Open, embeds CreateOptions for the
    create-on-open fallback path

Errors:
  - ErrorKind: the fixed set of error kinds the controller can surface
  - Error: a *types.Error wraps ErrorKind plus an optional underlying cause
*/
package types
