package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/driftdb/driftdb/pkg/cache"
	"github.com/driftdb/driftdb/pkg/migration"
	"github.com/driftdb/driftdb/pkg/types"
)

var (
	directory  = flag.String("directory", "./driftdb", "driftdb data directory")
	address    = flag.String("address", "", "Address to migrate, e.g. /orbitdb/<root>/<name>")
	dryRun     = flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	backupPath = flag.String("backup", "", "Path to back up the database directory before migration (default: <address dir>.backup)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("driftdb migration tool")
	log.Println("======================")

	if *address == "" {
		log.Fatal("-address is required")
	}
	addr, err := types.ParseAddress(*address)
	if err != nil {
		log.Fatalf("invalid address: %v", err)
	}

	dbDir := filepath.Join(*directory, addr.Root, addr.Path)
	log.Printf("Directory: %s", dbDir)
	log.Printf("Dry run: %v", *dryRun)

	if *dryRun {
		inspectLegacyState(dbDir)
		log.Println("\nDry run completed. No changes made.")
		log.Println("Run without -dry-run to perform the migration.")
		return
	}

	if _, err := os.Stat(dbDir); err == nil {
		backupDir := *backupPath
		if backupDir == "" {
			backupDir = dbDir + ".backup"
		}
		log.Printf("Creating backup: %s", backupDir)
		if err := copyDir(dbDir, backupDir); err != nil {
			log.Fatalf("failed to create backup: %v", err)
		}
		log.Println("backup created successfully")
	}

	cacheManager := cache.NewManager()
	defer cacheManager.CloseAll()

	deps := cliDeps{directory: *directory, cacheManager: cacheManager}
	if err := migration.Run(context.Background(), deps, addr); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("\nmigration completed successfully")
}

// cliDeps satisfies migration.Dependencies without a live controller, the
// same minimal surface the controller's migrationDeps adapts from
// *Controller.
type cliDeps struct {
	directory    string
	cacheManager *cache.Manager
}

func (d cliDeps) Directory() string { return d.directory }

func (d cliDeps) CacheFor(address types.Address) (cache.Cache, error) {
	store, err := d.cacheManager.Open(d.directory)
	if err != nil {
		return nil, err
	}
	return store.Instance(address.String())
}

// inspectLegacyState reports the legacy paths the registered migrations
// would act on, without touching anything.
func inspectLegacyState(dbDir string) {
	legacyCache := filepath.Join(dbDir, "cache")
	if info, err := os.Stat(legacyCache); err == nil && !info.IsDir() {
		log.Printf("[DRY RUN] would rename legacy cache file %s aside", legacyCache)
	} else {
		log.Println("no legacy pre-namespaced cache file found")
	}

	legacyHeads := filepath.Join(dbDir, "heads.json")
	if _, err := os.Stat(legacyHeads); err == nil {
		log.Printf("[DRY RUN] would import heads from %s into the cache index and rename it aside", legacyHeads)
	} else {
		log.Println("no legacy heads.json file found")
	}
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
