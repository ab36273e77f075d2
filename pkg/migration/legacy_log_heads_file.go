package migration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/driftdb/driftdb/pkg/types"
)

const headsCacheKey = "_heads"

// legacyLogHeadsFileMigration detects a legacy flat heads.json file under
// the per-database directory and imports its entries into the cache key
// the current store reads its head set from on open, then renames the
// file with a .migrated suffix so it is never silently deleted.
var legacyLogHeadsFileMigration = Migration{
	Name: "002_legacy_log_heads_file",
	Run:  runLegacyLogHeadsFileMigration,
}

type legacyHeadsFile struct {
	Heads []string `json:"heads"`
}

func runLegacyLogHeadsFileMigration(ctx context.Context, deps Dependencies, address types.Address) error {
	legacyPath := filepath.Join(deps.Directory(), address.Root, address.Path, "heads.json")

	raw, err := os.ReadFile(legacyPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var legacy legacyHeadsFile
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return err
	}

	c, err := deps.CacheFor(address)
	if err != nil {
		return err
	}

	// Do not overwrite heads the current layout already recorded; the
	// legacy file only matters the first time a pre-upgrade database is
	// opened under the new layout.
	if _, ok, err := c.Get(headsCacheKey); err != nil {
		return err
	} else if ok {
		return os.Rename(legacyPath, legacyPath+".migrated")
	}

	encoded, err := json.Marshal(struct {
		Heads []string `json:"heads"`
		Clock uint64   `json:"clock"`
	}{Heads: legacy.Heads})
	if err != nil {
		return err
	}
	if err := c.Set(headsCacheKey, encoded); err != nil {
		return err
	}

	return os.Rename(legacyPath, legacyPath+".migrated")
}
