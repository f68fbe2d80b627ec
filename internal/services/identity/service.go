package identity

import (
	"fmt"
	"unicode"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// Service manages the long-term identity behind a passphrase-guarded store.
//
// The identity is a single Ed25519 signing pair plus the X25519 halves
// derived from it: the signing half authenticates prekeys, the converted
// half runs the Diffie-Hellman legs of the handshake.
type Service struct {
	store domain.IdentityStore
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore) *Service { return &Service{store: s} }

// Generate creates a new identity, saves it encrypted with the passphrase,
// and returns the identity plus a grouped fingerprint of the signing key.
func (s *Service) Generate(passphrase string) (domain.Identity, string, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	id, err := crypto.NewIdentity()
	if err != nil {
		return domain.Identity{}, "", err
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.FingerprintGrouped(id.EdPub.Slice()), nil
}

// Load decrypts and returns the local identity.
func (s *Service) Load(passphrase string) (domain.Identity, error) {
	return s.store.LoadIdentity(passphrase)
}

// Fingerprint returns the grouped fingerprint of the local signing key,
// suitable for manual comparison over a second channel.
func (s *Service) Fingerprint(passphrase string) (string, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.FingerprintGrouped(id.EdPub.Slice()), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
