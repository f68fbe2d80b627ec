package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"hushwire/internal/domain"
	"hushwire/internal/util/memzero"
)

const saltSize = 16

// SealRecord encrypts an at-rest record under a passphrase-derived key and
// returns a self-contained blob: salt || nonce || ciphertext.
func SealRecord(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// OpenRecord reverses SealRecord, failing with domain.ErrPassphrase when the
// record does not unseal.
func OpenRecord(passphrase string, blob []byte) ([]byte, error) {
	minLen := saltSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(blob) < minLen {
		return nil, fmt.Errorf("%w: record too short", domain.ErrPassphrase)
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ct := blob[saltSize+chacha20poly1305.NonceSizeX:]

	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, domain.ErrPassphrase
	}
	return pt, nil
}

// deriveKEK stretches a passphrase into a key-encryption key with Argon2id.
func deriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 8, 32)
}
