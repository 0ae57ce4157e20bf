// Package vault provides encrypted local storage for third-party service
// credentials. Sealing delegates to a secret-sealing primitive; key records
// carry only sealed blobs into the embedded database.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Sealer is the secret-sealing primitive boundary. An OS keychain-backed
// implementation can be swapped in; the host ships a passphrase-derived one.
type Sealer interface {
	// Available reports whether sealing is usable in this session.
	Available() bool
	// Seal encrypts plaintext into an opaque blob.
	Seal(plaintext []byte) ([]byte, error)
	// Unseal decrypts a blob produced by Seal.
	Unseal(blob []byte) ([]byte, error)
}

// Blob layout: magic || salt || nonce || ciphertext.
var sealMagic = []byte("gwv1")

const (
	saltSize = 16
	keySize  = 32

	// argon2id parameters
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrSealerUnavailable is returned when no passphrase was provided.
var ErrSealerUnavailable = errors.New("sealer unavailable: no passphrase configured")

// PassphraseSealer seals with AES-256-GCM under an argon2id-derived key.
// A fresh salt and nonce are drawn per seal, so equal plaintexts produce
// unequal blobs.
type PassphraseSealer struct {
	passphrase []byte
}

// NewPassphraseSealer creates a sealer. An empty passphrase yields an
// unavailable sealer rather than an error: the vault is an optional feature
// and its absence must not block the editor.
func NewPassphraseSealer(passphrase []byte) *PassphraseSealer {
	return &PassphraseSealer{passphrase: passphrase}
}

// Available implements Sealer.
func (s *PassphraseSealer) Available() bool {
	return len(s.passphrase) > 0
}

// Seal implements Sealer.
func (s *PassphraseSealer) Seal(plaintext []byte) ([]byte, error) {
	if !s.Available() {
		return nil, ErrSealerUnavailable
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to draw salt: %w", err)
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to draw nonce: %w", err)
	}

	blob := make([]byte, 0, len(sealMagic)+saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	blob = append(blob, sealMagic...)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return gcm.Seal(blob, nonce, plaintext, nil), nil
}

// Unseal implements Sealer.
func (s *PassphraseSealer) Unseal(blob []byte) ([]byte, error) {
	if !s.Available() {
		return nil, ErrSealerUnavailable
	}
	if len(blob) < len(sealMagic)+saltSize || !bytes.HasPrefix(blob, sealMagic) {
		return nil, errors.New("sealed blob is malformed")
	}
	blob = blob[len(sealMagic):]

	salt := blob[:saltSize]
	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	rest := blob[saltSize:]
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("sealed blob is truncated")
	}

	plaintext, err := gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal: %w", err)
	}
	return plaintext, nil
}

func (s *PassphraseSealer) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
