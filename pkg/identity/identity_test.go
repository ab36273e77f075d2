package identity

import (
	"os"
	"testing"
)

func TestCreateIdentityIsIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "identity-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	ks, err := KeystoreFromPassword(dir, "correct horse battery staple")
	if err != nil {
		t.Fatalf("KeystoreFromPassword: %v", err)
	}
	defer ks.Close()

	provider := NewProvider(ks)

	first, err := provider.CreateIdentity(CreateIdentityOptions{ID: "alice"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	second, err := provider.CreateIdentity(CreateIdentityOptions{ID: "alice"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}

	if string(first.PublicKey) != string(second.PublicKey) {
		t.Error("expected the same identity across repeated CreateIdentity calls")
	}
}

func TestCreateIdentityGeneratesIDWhenEmpty(t *testing.T) {
	dir, err := os.MkdirTemp("", "identity-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	ks, err := KeystoreFromPassword(dir, "password")
	if err != nil {
		t.Fatalf("KeystoreFromPassword: %v", err)
	}
	defer ks.Close()

	provider := NewProvider(ks)
	first, err := provider.CreateIdentity(CreateIdentityOptions{})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	second, err := provider.CreateIdentity(CreateIdentityOptions{})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("expected distinct generated ids for empty ID, got %q and %q", first.ID, second.ID)
	}
}

func TestDistinctIdentitiesHaveDistinctKeys(t *testing.T) {
	dir, err := os.MkdirTemp("", "identity-test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	ks, err := KeystoreFromPassword(dir, "password")
	if err != nil {
		t.Fatalf("KeystoreFromPassword: %v", err)
	}
	defer ks.Close()

	provider := NewProvider(ks)
	alice, err := provider.CreateIdentity(CreateIdentityOptions{ID: "alice"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	bob, err := provider.CreateIdentity(CreateIdentityOptions{ID: "bob"})
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if string(alice.PublicKey) == string(bob.PublicKey) {
		t.Error("expected distinct identities to have distinct keys")
	}
}
