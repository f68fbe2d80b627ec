package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"hushwire/internal/domain"
)

// DeriveKey runs HKDF-SHA256 over secret with the given salt and info label,
// returning n bytes of output.
func DeriveKey(secret, salt, info []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}

// DeriveKey32 is DeriveKey fixed to a single 32-byte key.
func DeriveKey32(secret, salt, info []byte) (domain.Key, error) {
	b, err := DeriveKey(secret, salt, info, 32)
	if err != nil {
		return domain.Key{}, err
	}
	return domain.MustKey(b), nil
}
