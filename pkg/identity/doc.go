/*
Package identity provides the default keystore and identity provider the
controller uses to sign and authorize database writes.

Keystore persists private key material in a bbolt file, encrypted at rest
with AES-256-GCM — the same cipher construction (random nonce prepended to
the ciphertext, sealed and opened with crypto/cipher's GCM mode) driftdb's
teacher uses for secrets. A Keystore can be opened with a raw 32-byte key or
derived from a password via KeystoreFromPassword.

Provider.CreateIdentity is idempotent per ID: the first call generates and
stores a new private key, every subsequent call for the same ID returns the
same Identity without touching the keystore's random source again.
*/
package identity
