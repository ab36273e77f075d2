package controller

import (
	"context"
	"fmt"

	"github.com/driftdb/driftdb/pkg/accesscontroller"
	"github.com/driftdb/driftdb/pkg/types"
)

// resolveAccessControllerSpec applies the default writer rule: if the
// caller did not specify a write list, the controller's own identity
// becomes the sole writer, even if the caller specified a read list.
func (c *Controller) resolveAccessControllerSpec(name string, spec *types.AccessControllerSpec) types.AccessControllerSpec {
	resolved := types.AccessControllerSpec{Type: "ipfs", Name: name}
	if spec != nil {
		resolved = *spec
		if resolved.Type == "" {
			resolved.Type = "ipfs"
		}
		if resolved.Name == "" {
			resolved.Name = name
		}
	}
	if len(resolved.Write) == 0 {
		resolved.Write = []string{c.identity.ID}
	}
	return resolved
}

// determineAddressWithOptions implements _determineAddress (onlyHash=false)
// and determineAddress (onlyHash=true): it fails InvalidType if typeTag
// isn't registered, NameIsAddress if name already parses as an address,
// otherwise creates the access-controller descriptor, writes (or just
// hashes) the manifest, and returns the resulting address.
func (c *Controller) determineAddressWithOptions(ctx context.Context, name, typeTag string, opts types.CreateOptions, onlyHash bool) (types.Address, error) {
	if _, err := c.registry.Resolve(typeTag); err != nil {
		return types.Address{}, types.NewError(types.InvalidType, fmt.Sprintf("Invalid database type '%s'", typeTag))
	}
	if types.IsValidAddress(name) {
		return types.Address{}, types.NewError(types.NameIsAddress, fmt.Sprintf("%q is an address, not a name", name))
	}

	acSpec := c.resolveAccessControllerSpec(name, opts.AccessController)
	acPath, err := accesscontroller.Create(ctx, c.objectStore, acSpec)
	if err != nil {
		return types.Address{}, fmt.Errorf("controller: create access controller: %w", err)
	}

	root, err := createDBManifest(ctx, c.objectStore, name, typeTag, acPath, opts, onlyHash)
	if err != nil {
		return types.Address{}, fmt.Errorf("controller: write manifest: %w", err)
	}

	return types.ParseAddress("/" + types.AddressPrefix + "/" + root + "/" + name)
}

// determineAddress computes name's address without persisting the
// manifest: the manifest writer is called with onlyHash:true.
func (c *Controller) determineAddress(ctx context.Context, name, typeTag string, opts types.CreateOptions) (types.Address, error) {
	return c.determineAddressWithOptions(ctx, name, typeTag, opts, true)
}

// _determineAddress computes and persists name's manifest and returns its
// address.
func (c *Controller) _determineAddress(ctx context.Context, name, typeTag string, opts types.CreateOptions) (types.Address, error) {
	return c.determineAddressWithOptions(ctx, name, typeTag, opts, false)
}
