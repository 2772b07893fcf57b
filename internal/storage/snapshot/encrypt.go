// This file contains key derivation for snapshot at-rest encryption.
package snapshot

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"

	"github.com/docmirror/docmirror-go/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
)

const (
	// MinKeyLength is the minimum raw key length for encryption.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in passphrase key derivation.
	SaltLength = 16

	// saltFileName is the per-root salt file, created on first encrypted
	// dump and reused for every later dump and restore against that root.
	saltFileName = ".docmirror-salt"

	// Argon2id parameters for key derivation from a passphrase.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// EncryptionConfig configures snapshot at-rest encryption.
// Exactly one of Key or Passphrase should be set; both empty disables
// encryption.
type EncryptionConfig struct {
	// Key is a raw encryption key (minimum 16 bytes, 32 recommended).
	Key []byte

	// Passphrase derives a 32-byte key via argon2id with a salt persisted
	// next to the snapshots.
	Passphrase string
}

// Enabled reports whether any encryption material is configured.
func (c EncryptionConfig) Enabled() bool {
	return len(c.Key) > 0 || c.Passphrase != ""
}

// NewCipher builds the AEAD cipher for snapshots under root, deriving the
// key from a passphrase when necessary. Returns (nil, nil) when encryption
// is not configured.
func NewCipher(root string, cfg EncryptionConfig) (adaptive.Cipher, error) {
	switch {
	case len(cfg.Key) > 0:
		if len(cfg.Key) < MinKeyLength {
			return nil, ErrKeyTooShort
		}
		key := cfg.Key
		if len(key) != argon2KeyLen {
			// Stretch or truncate to the AEAD key size via argon2 with a
			// fixed salt: raw keys are already high-entropy material.
			key = argon2.IDKey(cfg.Key, []byte("docmirror.rawkey.v1"), 1, 64*1024, 4, argon2KeyLen)
		}
		return adaptive.New(key)

	case cfg.Passphrase != "":
		if len(cfg.Passphrase) < MinPassphraseLength {
			return nil, ErrPassphraseTooWeak
		}
		salt, err := loadOrCreateSalt(root)
		if err != nil {
			return nil, err
		}
		key := argon2.IDKey([]byte(cfg.Passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
		return adaptive.New(key)

	default:
		return nil, nil
	}
}

// loadOrCreateSalt reads the per-root salt file, creating it with fresh
// random bytes on first use. The root directory is created if missing.
func loadOrCreateSalt(root string) ([]byte, error) {
	path := filepath.Join(root, saltFileName)

	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != SaltLength {
			return nil, fmt.Errorf("snapshot: corrupt salt file %s", path)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create root: %w", err)
	}
	salt = make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, fmt.Errorf("snapshot: write salt file: %w", err)
	}
	return salt, nil
}
