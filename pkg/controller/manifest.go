package controller

import (
	"context"

	"github.com/driftdb/driftdb/pkg/metrics"
	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

// createDBManifest persists the manifest for name/typeTag/accessControllerPath
// and returns its content hash. It takes the explicit-object form of the
// defaults field: callers that want defaults frozen into the manifest pass
// them via CreateOptions.Defaults, never synthesized by subtracting option
// keys. onlyHash forwards to the object store so determineAddress can
// compute the same hash create would produce without persisting anything.
func createDBManifest(ctx context.Context, objStore objectstore.ObjectStore, name, typeTag, accessControllerPath string, opts types.CreateOptions, onlyHash bool) (string, error) {
	manifest := types.Manifest{
		Name:             name,
		Type:             typeTag,
		AccessController: accessControllerPath,
	}
	if len(opts.Defaults) > 0 {
		manifest.Defaults = opts.Defaults
	}
	hash, err := objStore.Write(ctx, &manifest, onlyHash)
	if err == nil && !onlyHash {
		metrics.ManifestsWritten.Inc()
	}
	return hash, err
}

// readManifest loads the manifest a database's address.Root names.
func readManifest(ctx context.Context, objStore objectstore.ObjectStore, root string) (*types.Manifest, error) {
	var manifest types.Manifest
	if err := objStore.Read(ctx, root, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// mergeManifestDefaults merges manifest defaults underneath caller-supplied
// Defaults, caller options winning on key conflicts, skipping any legacy
// excluded-option key a pre-upgrade manifest might still carry.
func mergeManifestDefaults(callerDefaults, manifestDefaults map[string]any) map[string]any {
	if len(manifestDefaults) == 0 {
		return callerDefaults
	}
	merged := make(map[string]any, len(manifestDefaults)+len(callerDefaults))
	for k, v := range manifestDefaults {
		if types.IsExcludedOptionKey(k) {
			continue
		}
		merged[k] = v
	}
	for k, v := range callerDefaults {
		merged[k] = v
	}
	return merged
}
