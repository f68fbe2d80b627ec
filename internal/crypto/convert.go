package crypto

import (
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"

	"hushwire/internal/domain"
)

// XPublicFromEd converts an Ed25519 public key to its X25519 form by mapping
// the Edwards point to its Montgomery u-coordinate. SetBytes rejects
// non-canonical encodings, so a bogus identity key fails here rather than
// producing garbage DH output.
func XPublicFromEd(pub domain.Ed25519Public) (domain.X25519Public, error) {
	p, err := new(edwards25519.Point).SetBytes(pub.Slice())
	if err != nil {
		return domain.X25519Public{}, fmt.Errorf("convert ed25519 public: %w", err)
	}
	return domain.MustX25519Public(p.BytesMontgomery()), nil
}

// XPrivateFromEd derives the X25519 scalar from an Ed25519 seed the same way
// ed25519 signing does: SHA-512 of the seed, first half, clamped.
func XPrivateFromEd(priv domain.Ed25519Private) domain.X25519Private {
	h := sha512.Sum512(priv[:32])
	k := domain.MustX25519Private(h[:32])
	clamp(&k)
	return k
}
