package crypto

import "hushwire/internal/domain"

// NewIdentity generates the long-term signing pair and derives its X25519
// halves. One Ed25519 key backs both prekey signatures and, converted, the
// identity legs of the handshake.
func NewIdentity() (domain.Identity, error) {
	priv, pub, err := GenerateEd25519()
	if err != nil {
		return domain.Identity{}, err
	}
	xpub, err := XPublicFromEd(pub)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		EdPub:  pub,
		EdPriv: priv,
		XPub:   xpub,
		XPriv:  XPrivateFromEd(priv),
	}, nil
}
