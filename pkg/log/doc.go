/*
Package log provides structured logging for driftdb using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, a configurable level, and a handful of
package-level helpers for the common case. Every log line carries a
timestamp and can be filtered by severity for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog.Logger instance                  │          │
	│  │  - initialized via log.Init()               │          │
	│  │  - safe for concurrent use                  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - JSONOutput: JSON or console (human)      │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("controller")              │          │
	│  │  - WithAddress("/orbitdb/Qm.../first")      │          │
	│  │  - WithPeerID("peer-abc123")                │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON:    {"level":"info","component":      │          │
	│  │            "controller","message":"..."}    │          │
	│  │  Console: 2024-01-02T10:30:00Z INF opened    │          │
	│  │            component=controller              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	import "github.com/driftdb/driftdb/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("controller starting")

	ctrlLog := log.WithComponent("controller")
	ctrlLog.Info().Str("address", addr.String()).Msg("opened database")

	pubsubLog := log.WithComponent("pubsub").With().
		Str("address", addr.String()).
		Logger()
	pubsubLog.Warn().Err(err).Msg("dropping malformed head message")

The controller derives child loggers (WithComponent, WithAddress,
WithPeerID) at the point it logs, and the migration runner derives one per
Run with WithAddress; the pubsub coordinator logs dropped messages through
the package-level Warn helper.

# Log Rotation

driftdb does not rotate log files itself. For file output, pair it with
logrotate or let the process supervisor (systemd, a container runtime)
handle rotation:

	# /etc/logrotate.d/driftdb
	/var/log/driftdb/*.log {
	    daily
	    rotate 7
	    compress
	    delaycompress
	    missingok
	    notifempty
	    copytruncate
	}

	journalctl -u driftdbd -f

# Security

Never log keystore material, identity private keys, or access-controller
write lists verbatim. Use structured fields (.Str, .Int) instead of string
concatenation so log lines stay parseable and free of injected control
characters.
*/
package log
