/*
Package accesscontroller bridges a database's manifest to the
AccessController that guards writes to its log.

Create persists an access-controller descriptor through the object store
and returns the path the manifest's accessController field should hold.
Resolve reads that path back into a usable AccessController. The only
built-in type is "ipfs": a {type, write, read} descriptor whose CanAppend
consults only the write list, per the controller's contract — read-only
keys are accepted but never checked, since driftdb does not yet gate reads.
*/
package accesscontroller
