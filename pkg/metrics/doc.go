/*
Package metrics provides Prometheus instrumentation for driftdb.

Counters and gauges are registered at package init and incremented directly
at the call sites that own the event: pkg/controller increments
StoresOpened, StoresOpenGauge, and ManifestsWritten; pkg/pubsub increments
PubsubMessagesSent/Received and PeersConnected; pkg/migration increments
MigrationsApplied. There is no polling collector: driftdb has no list of
cluster resources to sample on a ticker, so every metric is pushed by the
code that causes it.

Handler exposes the registry over HTTP for a Prometheus scrape. Timer is a
small helper for observing operation duration into a histogram, used around
the oplog's sync.

HealthChecker tracks the liveness of named components (objectstore, pubsub)
independently of metrics, for the /health, /ready, and /live endpoints a
driftdb daemon would serve alongside the Prometheus handler.
*/
package metrics
