package migration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/types"
)

type testDeps struct {
	dir     string
	manager *cache.Manager
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	dir, err := os.MkdirTemp("", "migration-test")
	require.NoError(t, err, "mkdtemp")
	t.Cleanup(func() { os.RemoveAll(dir) })
	return &testDeps{dir: dir, manager: cache.NewManager()}
}

func (d *testDeps) Directory() string { return d.dir }

func (d *testDeps) CacheFor(address types.Address) (cache.Cache, error) {
	store, err := d.manager.Open(d.dir)
	if err != nil {
		return nil, err
	}
	return store.Instance(address.String())
}

func TestRunIsNoOpWhenNothingLegacyExists(t *testing.T) {
	deps := newTestDeps(t)
	address := types.Address{Root: "Qmtest", Path: "db"}

	assert.NoError(t, Run(context.Background(), deps, address))
}

func TestRunIsIdempotent(t *testing.T) {
	deps := newTestDeps(t)
	address := types.Address{Root: "Qmtest", Path: "db"}

	dbDir := filepath.Join(deps.dir, address.Root, address.Path)
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "cache"), []byte("legacy"), 0o644))
	raw, err := json.Marshal(legacyHeadsFile{Heads: []string{"hash1"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dbDir, "heads.json"), raw, 0o644))

	require.NoError(t, Run(context.Background(), deps, address), "first run")
	// Every registered migration must be a no-op once its legacy state has
	// already been moved aside; running twice must succeed identically.
	require.NoError(t, Run(context.Background(), deps, address), "second run")

	c, err := deps.CacheFor(address)
	require.NoError(t, err, "CacheFor")
	value, ok, err := c.Get(headsCacheKey)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted struct {
		Heads []string `json:"heads"`
	}
	require.NoError(t, json.Unmarshal(value, &persisted))
	assert.Equal(t, []string{"hash1"}, persisted.Heads)
}

func TestLegacyCacheLayoutRenamesStrayFile(t *testing.T) {
	deps := newTestDeps(t)
	address := types.Address{Root: "Qmtest", Path: "db"}

	dbDir := filepath.Join(deps.dir, address.Root, address.Path)
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	legacyPath := filepath.Join(dbDir, "cache")
	require.NoError(t, os.WriteFile(legacyPath, []byte("legacy"), 0o644))

	require.NoError(t, runLegacyCacheLayoutMigration(context.Background(), deps, address))

	_, err := os.Stat(legacyPath)
	assert.True(t, os.IsNotExist(err), "expected legacy cache file to be moved aside, stat err=%v", err)
	_, err = os.Stat(legacyPath + ".legacy")
	assert.NoError(t, err, "expected renamed file to exist")
}

func TestLegacyLogHeadsFileImportsIntoCache(t *testing.T) {
	deps := newTestDeps(t)
	address := types.Address{Root: "Qmtest", Path: "db"}

	dbDir := filepath.Join(deps.dir, address.Root, address.Path)
	require.NoError(t, os.MkdirAll(dbDir, 0o755))
	legacyPath := filepath.Join(dbDir, "heads.json")
	raw, err := json.Marshal(legacyHeadsFile{Heads: []string{"hash1", "hash2"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(legacyPath, raw, 0o644))

	require.NoError(t, runLegacyLogHeadsFileMigration(context.Background(), deps, address))

	_, err = os.Stat(legacyPath)
	assert.True(t, os.IsNotExist(err), "expected legacy heads file to be renamed")
	_, err = os.Stat(legacyPath + ".migrated")
	assert.NoError(t, err, "expected .migrated file to exist")

	c, err := deps.CacheFor(address)
	require.NoError(t, err, "CacheFor")
	value, ok, err := c.Get(headsCacheKey)
	require.NoError(t, err)
	require.True(t, ok, "expected imported heads in cache")
	var persisted struct {
		Heads []string `json:"heads"`
	}
	require.NoError(t, json.Unmarshal(value, &persisted))
	assert.Equal(t, []string{"hash1", "hash2"}, persisted.Heads)
}
