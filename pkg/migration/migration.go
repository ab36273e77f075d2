// Package migration implements the migration runner: an ordered, idempotent
// sequence of on-disk upgrades applied before a store is opened.
package migration

import (
	"context"

	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/log"
	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/types"
)

// Dependencies is the slice of controller state a Migration is allowed to
// touch. It is an interface, not *controller.Controller, so this package
// has no dependency on pkg/controller; the controller satisfies it.
type Dependencies interface {
	// Directory is the root directory the controller was opened with.
	Directory() string
	// CacheFor returns the cache instance a store at address will read its
	// persisted heads from, the same instance _createStore hands the store.
	CacheFor(address types.Address) (cache.Cache, error)
}

// Migration inspects file-system state under directory/address.Root/address.Path,
// or a legacy equivalent, and moves or rewrites data into the current
// layout. A Migration must be a no-op, returning nil, when nothing needs
// doing.
type Migration struct {
	Name string
	Run  func(ctx context.Context, deps Dependencies, address types.Address) error
}

// registered is the fixed, ordered sequence applied by Run. Order matters:
// later migrations may assume earlier ones already ran.
var registered = []Migration{
	legacyCacheLayoutMigration,
	legacyLogHeadsFileMigration,
}

// Run applies every registered migration in order, failing the whole
// create/open call on the first error.
func Run(ctx context.Context, deps Dependencies, address types.Address) error {
	logger := log.WithAddress(address.String())
	for _, m := range registered {
		if err := m.Run(ctx, deps, address); err != nil {
			logger.Error().Str("migration", m.Name).Err(err).Msg("migration failed")
			return types.WrapError(types.InvariantViolation, "migration "+m.Name+" failed", err)
		}
		metrics.MigrationsApplied.WithLabelValues(m.Name).Inc()
	}
	return nil
}
