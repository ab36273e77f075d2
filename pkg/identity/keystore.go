package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketKeys = []byte("keys")

// Keystore holds identity private key material encrypted at rest with
// AES-256-GCM. The encryption key is either supplied directly or derived
// from a password by hashing it with SHA-256.
type Keystore struct {
	db            *bolt.DB
	encryptionKey []byte // 32 bytes for AES-256
}

// OpenKeystore opens (creating if absent) the keystore file at
// directory/keystore.db, encrypting new keys with the given 32-byte key.
func OpenKeystore(directory string, encryptionKey []byte) (*Keystore, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("identity: encryption key must be 32 bytes for AES-256, got %d", len(encryptionKey))
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("identity: create directory: %w", err)
	}
	dbPath := filepath.Join(directory, "keystore.db")
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: open %s: %w", dbPath, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKeys)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("identity: init: %w", err)
	}
	return &Keystore{db: db, encryptionKey: encryptionKey}, nil
}

// KeystoreFromPassword derives a 32-byte AES key from password via SHA-256
// and opens a keystore with it.
func KeystoreFromPassword(directory, password string) (*Keystore, error) {
	if password == "" {
		return nil, fmt.Errorf("identity: password cannot be empty")
	}
	key := sha256.Sum256([]byte(password))
	return OpenKeystore(directory, key[:])
}

// Close closes the underlying bbolt file.
func (k *Keystore) Close() error {
	return k.db.Close()
}

// createKey generates a random 32-byte private key for id, encrypts it, and
// persists it. Calling createKey again for an id that already has a key is
// a no-op: existing identities are never silently rotated.
func (k *Keystore) createKey(id string) ([]byte, error) {
	if existing, ok, err := k.getRawKey(id); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}

	privateKey := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, privateKey); err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}

	encrypted, err := k.encrypt(privateKey)
	if err != nil {
		return nil, err
	}
	if err := k.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		return b.Put([]byte(id), encrypted)
	}); err != nil {
		return nil, fmt.Errorf("identity: store key for %s: %w", id, err)
	}
	return privateKey, nil
}

func (k *Keystore) getRawKey(id string) ([]byte, bool, error) {
	var encrypted []byte
	err := k.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		encrypted = append(encrypted, data...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if encrypted == nil {
		return nil, false, nil
	}
	plaintext, err := k.decrypt(encrypted)
	if err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

func (k *Keystore) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("identity: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("identity: new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("identity: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (k *Keystore) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("identity: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("identity: new gcm: %w", err)
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("identity: ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
