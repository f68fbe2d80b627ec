package x3dh

import (
	"fmt"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
	"hushwire/internal/util/memzero"
)

var info = []byte("hushwire-x3dh")

// Initiate runs the initiator side of the handshake against a fetched
// bundle. The signed prekey signature is verified before any DH work; a bad
// signature aborts with domain.ErrSignatureVerification.
//
// Returns the 32-byte shared secret and our ephemeral public key, which the
// responder needs to mirror the computation.
func Initiate(our domain.Identity, bundle domain.PreKeyBundle) (domain.Key, domain.X25519Public, error) {
	if !VerifyPreKey(bundle.IdentityKey, bundle.SignedPreKeyPub, bundle.SignedPreKeySignature) {
		return domain.Key{}, domain.X25519Public{}, domain.ErrSignatureVerification
	}

	peerIdentityX, err := crypto.XPublicFromEd(bundle.IdentityKey)
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, fmt.Errorf("peer identity key: %w", err)
	}

	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, err
	}

	dh1, err := crypto.DH(our.XPriv, bundle.SignedPreKeyPub) // IK_A x SPK_B
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, err
	}
	dh2, err := crypto.DH(ephPriv, peerIdentityX) // EK_A x IK_B
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, err
	}
	dh3, err := crypto.DH(ephPriv, bundle.SignedPreKeyPub) // EK_A x SPK_B
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, err
	}

	concat := make([]byte, 0, 32*4)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)

	if bundle.OneTime != nil {
		dh4, err := crypto.DH(ephPriv, bundle.OneTime.Pub) // EK_A x OPK_B
		if err != nil {
			return domain.Key{}, domain.X25519Public{}, err
		}
		concat = append(concat, dh4[:]...)
	}

	shared, err := crypto.DeriveKey32(concat, nil, info)
	memzero.Zero(concat)
	if err != nil {
		return domain.Key{}, domain.X25519Public{}, err
	}
	return shared, ephPub, nil
}

// Respond computes the responder's mirror image of Initiate: operand order
// is swapped per leg but the DH products, and therefore the derived secret,
// are identical. A nil opk degrades the handshake from 4-DH to 3-DH; it
// never fails it.
func Respond(our domain.Identity, spk domain.SignedPreKeyPair, theirIdentity domain.Ed25519Public, theirEphemeral domain.X25519Public, opk *domain.OneTimePreKeyPair) (domain.Key, error) {
	theirIdentityX, err := crypto.XPublicFromEd(theirIdentity)
	if err != nil {
		return domain.Key{}, fmt.Errorf("peer identity key: %w", err)
	}

	dh1, err := crypto.DH(spk.Priv, theirIdentityX) // SPK_B x IK_A
	if err != nil {
		return domain.Key{}, err
	}
	dh2, err := crypto.DH(our.XPriv, theirEphemeral) // IK_B x EK_A
	if err != nil {
		return domain.Key{}, err
	}
	dh3, err := crypto.DH(spk.Priv, theirEphemeral) // SPK_B x EK_A
	if err != nil {
		return domain.Key{}, err
	}

	concat := make([]byte, 0, 32*4)
	concat = append(concat, dh1[:]...)
	concat = append(concat, dh2[:]...)
	concat = append(concat, dh3[:]...)

	if opk != nil {
		dh4, err := crypto.DH(opk.Priv, theirEphemeral) // OPK_B x EK_A
		if err != nil {
			return domain.Key{}, err
		}
		concat = append(concat, dh4[:]...)
	}

	shared, err := crypto.DeriveKey32(concat, nil, info)
	memzero.Zero(concat)
	if err != nil {
		return domain.Key{}, err
	}
	return shared, nil
}

// SignPreKey signs a prekey public with the identity key. Centralised here
// so signer and verifier agree on the exact bytes covered.
func SignPreKey(id domain.Identity, pub domain.X25519Public) []byte {
	return crypto.SignEd25519(id.EdPriv, pub.Slice())
}

// VerifyPreKey checks a signed prekey signature.
func VerifyPreKey(identity domain.Ed25519Public, pub domain.X25519Public, sig []byte) bool {
	return crypto.VerifyEd25519(identity, pub.Slice(), sig)
}
