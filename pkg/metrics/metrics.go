package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StoresOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftdb_stores_opened_total",
			Help: "Total number of stores opened or created, by type",
		},
		[]string{"type"},
	)

	StoresOpenGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "driftdb_stores_open",
			Help: "Number of stores currently live in this controller",
		},
	)

	ManifestsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftdb_manifests_written_total",
			Help: "Total number of manifests written to the object store",
		},
	)

	MigrationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftdb_migrations_applied_total",
			Help: "Total number of migrations applied, by migration name",
		},
		[]string{"migration"},
	)

	PubsubMessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftdb_pubsub_messages_sent_total",
			Help: "Total number of head-exchange messages published, by kind",
		},
		[]string{"kind"}, // "broadcast" or "direct"
	)

	PubsubMessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftdb_pubsub_messages_received_total",
			Help: "Total number of head-exchange messages received, by kind",
		},
		[]string{"kind"},
	)

	PeersConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "driftdb_peers_connected",
			Help: "Number of peers with an open direct channel",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftdb_cache_hits_total",
			Help: "Total number of cache index lookups that found an entry",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftdb_cache_misses_total",
			Help: "Total number of cache index lookups that found nothing",
		},
	)

	EntriesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftdb_entries_appended_total",
			Help: "Total number of oplog entries appended, by store type",
		},
		[]string{"type"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "driftdb_sync_duration_seconds",
			Help:    "Time taken to merge a remote head set into a local store",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(StoresOpened)
	prometheus.MustRegister(StoresOpenGauge)
	prometheus.MustRegister(ManifestsWritten)
	prometheus.MustRegister(MigrationsApplied)
	prometheus.MustRegister(PubsubMessagesSent)
	prometheus.MustRegister(PubsubMessagesReceived)
	prometheus.MustRegister(PeersConnected)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(EntriesAppended)
	prometheus.MustRegister(SyncDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
