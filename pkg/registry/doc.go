/*
Package registry implements the type registry the controller resolves a
manifest's "type" tag against when opening or creating a database.

A process-wide default Registry is seeded at package init time with the
five built-in types (eventlog, feed, keyvalue, counter, docstore).
AddDatabaseType extends it, mirroring OrbitDB's global addDatabaseType. A
controller constructed with an explicit Options.Registry uses that instance
instead and never touches the default, so tests can register throwaway
types without leaking them into other tests' processes.
*/
package registry
