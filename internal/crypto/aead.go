package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"hushwire/internal/domain"
)

// NonceSize is the XChaCha20-Poly1305 nonce length carried on the wire.
const NonceSize = chacha20poly1305.NonceSizeX

// Seal encrypts plaintext under a fresh random nonce, binding aad into the
// authentication tag.
func Seal(key domain.Key, plaintext, aad []byte) (domain.SealedBox, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return domain.SealedBox{}, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.SealedBox{}, fmt.Errorf("nonce: %w", err)
	}
	return domain.SealedBox{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, aad),
	}, nil
}

// Open authenticates and decrypts box. Any failure comes back as
// domain.ErrAuthentication; the cause (wrong key, tampered ciphertext, bad
// nonce) is deliberately not distinguished.
func Open(key domain.Key, box domain.SealedBox, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(box.Nonce) != NonceSize {
		return nil, domain.ErrAuthentication
	}
	pt, err := aead.Open(nil, box.Nonce, box.Ciphertext, aad)
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return pt, nil
}

func newAEAD(key domain.Key) (cipher.AEAD, error) {
	return chacha20poly1305.NewX(key.Slice())
}
