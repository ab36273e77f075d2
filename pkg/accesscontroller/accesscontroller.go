// Package accesscontroller implements the access-controller bridge: it
// creates and resolves the descriptors the controller's manifest writer
// points a database's "accessController" field at.
package accesscontroller

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftdb/driftdb/pkg/objectstore"
	"github.com/driftdb/driftdb/pkg/types"
)

// AccessController decides whether a given identity may append an entry to
// a store's log.
type AccessController interface {
	Type() string
	// CanAppend reports whether identityID may append. Read-only keys are
	// accepted into a descriptor's read list but never consulted here.
	CanAppend(identityID string) bool
}

// descriptor is the wire shape of the default "ipfs"-type access
// controller, persisted through the object store like any other manifest
// object.
type descriptor struct {
	Type  string   `refmt:"type"`
	Write []string `refmt:"write"`
	Read  []string `refmt:"read"`
}

type ipfsAccessController struct {
	desc descriptor
}

func (a *ipfsAccessController) Type() string {
	return "ipfs"
}

func (a *ipfsAccessController) CanAppend(identityID string) bool {
	for _, w := range a.desc.Write {
		if w == "*" || w == identityID {
			return true
		}
	}
	return false
}

// Create persists spec as an "ipfs"-type descriptor and returns its
// resolvable path, "/ipfs/<hash>".
func Create(ctx context.Context, store objectstore.ObjectStore, spec types.AccessControllerSpec) (string, error) {
	desc := descriptor{Type: "ipfs", Write: spec.Write, Read: spec.Read}
	if len(desc.Write) == 0 {
		return "", fmt.Errorf("accesscontroller: write list must not be empty")
	}
	hash, err := store.Write(ctx, &desc, false)
	if err != nil {
		return "", fmt.Errorf("accesscontroller: create: %w", err)
	}
	return "/ipfs/" + hash, nil
}

// Resolve reads back the descriptor at path (as returned by Create) and
// returns the AccessController it describes.
func Resolve(ctx context.Context, store objectstore.ObjectStore, path string) (AccessController, error) {
	hash := strings.TrimPrefix(path, "/ipfs/")
	if hash == path {
		return nil, fmt.Errorf("accesscontroller: unsupported access controller path: %s", path)
	}

	var desc descriptor
	if err := store.Read(ctx, hash, &desc); err != nil {
		return nil, fmt.Errorf("accesscontroller: resolve %s: %w", path, err)
	}
	return &ipfsAccessController{desc: desc}, nil
}
