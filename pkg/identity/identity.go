package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Identity is the stable (id, publicKey) pair an access controller's write
// list names and CanAppend checks entries against.
type Identity struct {
	ID        string
	PublicKey []byte
}

// Provider creates and resolves Identity values backed by a Keystore.
type Provider struct {
	keystore *Keystore
}

// NewProvider builds a Provider over keystore.
func NewProvider(keystore *Keystore) *Provider {
	return &Provider{keystore: keystore}
}

// CreateIdentityOptions configures CreateIdentity. A blank ID causes a
// random one to be generated, the same uuid-backed scheme
// pkg/objectstore uses for peer ids, so that repeated calls with no ID
// are still distinguishable identities.
type CreateIdentityOptions struct {
	ID string
}

// CreateIdentity returns the Identity for opts.ID, generating and persisting
// its key material in the keystore on first use. Calling it again for the
// same ID returns the same identity.
func (p *Provider) CreateIdentity(opts CreateIdentityOptions) (*Identity, error) {
	id := opts.ID
	if id == "" {
		generated, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("identity: generate id: %w", err)
		}
		id = generated.String()
	}

	privateKey, err := p.keystore.createKey(id)
	if err != nil {
		return nil, fmt.Errorf("identity: create identity %s: %w", id, err)
	}

	return &Identity{ID: id, PublicKey: publicKeyFor(privateKey)}, nil
}

// publicKeyFor derives a stand-in public key from a private key by hashing
// it. driftdb does not implement a signature scheme; identities are
// authenticated by id membership in an access controller's write list, not
// by verifying a signature over entries.
func publicKeyFor(privateKey []byte) []byte {
	sum := sha256.Sum256(privateKey)
	return []byte(hex.EncodeToString(sum[:]))
}
