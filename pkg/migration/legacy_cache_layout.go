package migration

import (
	"context"
	"os"
	"path/filepath"

	"github.com/driftdb/driftdb/pkg/types"
)

// legacyCacheLayoutMigration detects a pre-namespaced cache file directly
// under <directory>/<address.Root>/<address.Path>/cache and moves it out of
// the way of the current per-directory bbolt layout driven by pkg/cache.
// Pre-namespaced caches predate the directory→bucket-per-address
// cache.Store model; this migration does not read or convert the file's
// contents, it only renames any plain file at that path to "cache.legacy",
// and it never deletes user data.
var legacyCacheLayoutMigration = Migration{
	Name: "001_legacy_cache_layout",
	Run:  runLegacyCacheLayoutMigration,
}

func runLegacyCacheLayoutMigration(ctx context.Context, deps Dependencies, address types.Address) error {
	legacyPath := filepath.Join(deps.Directory(), address.Root, address.Path, "cache")

	info, err := os.Stat(legacyPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	return os.Rename(legacyPath, legacyPath+".legacy")
}
