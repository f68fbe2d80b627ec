package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hushwire/internal/domain"
)

func TestConvertedKeysAgreeOnDH(t *testing.T) {
	alice, err := NewIdentity()
	require.NoError(t, err)
	bob, err := NewIdentity()
	require.NoError(t, err)

	ab, err := DH(alice.XPriv, bob.XPub)
	require.NoError(t, err)
	ba, err := DH(bob.XPriv, alice.XPub)
	require.NoError(t, err)
	require.Equal(t, ab, ba, "converted identities must agree on the shared secret")
}

func TestXPublicFromEdMatchesScalarBase(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	// The converted public must be the Montgomery point of the converted
	// scalar, otherwise the mirrored handshake legs cannot line up.
	priv, pub, err := GenerateX25519()
	require.NoError(t, err)

	s1, err := DH(id.XPriv, pub)
	require.NoError(t, err)
	s2, err := DH(priv, id.XPub)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestXPublicFromEdRejectsGarbage(t *testing.T) {
	var junk domain.Ed25519Public
	for i := range junk {
		junk[i] = 0xFF
	}
	_, err := XPublicFromEd(junk)
	require.Error(t, err)
}

func TestSealOpenRoundTrip(t *testing.T) {
	var key domain.Key
	for i := range key {
		key[i] = byte(i)
	}
	aad := []byte("header bytes")

	box, err := Seal(key, []byte("hello"), aad)
	require.NoError(t, err)
	require.Len(t, box.Nonce, NonceSize)

	pt, err := Open(key, box, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)
}

func TestOpenRejectsTampering(t *testing.T) {
	var key domain.Key
	box, err := Seal(key, []byte("hello"), nil)
	require.NoError(t, err)

	tampered := box
	tampered.Ciphertext = append([]byte(nil), box.Ciphertext...)
	tampered.Ciphertext[0] ^= 0x01
	_, err = Open(key, tampered, nil)
	require.ErrorIs(t, err, domain.ErrAuthentication)

	_, err = Open(key, box, []byte("different aad"))
	require.ErrorIs(t, err, domain.ErrAuthentication)

	var wrong domain.Key
	wrong[0] = 1
	_, err = Open(wrong, box, nil)
	require.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestSealUsesFreshNonces(t *testing.T) {
	var key domain.Key
	a, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)
	b, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)
	require.NotEqual(t, a.Nonce, b.Nonce)
	require.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestSealRecordRoundTrip(t *testing.T) {
	blob, err := SealRecord("passphrase", []byte("secret record"))
	require.NoError(t, err)

	pt, err := OpenRecord("passphrase", blob)
	require.NoError(t, err)
	require.Equal(t, []byte("secret record"), pt)

	_, err = OpenRecord("wrong", blob)
	require.ErrorIs(t, err, domain.ErrPassphrase)

	_, err = OpenRecord("passphrase", blob[:10])
	require.ErrorIs(t, err, domain.ErrPassphrase)
}

func TestDeriveKeySeparatesLabels(t *testing.T) {
	secret := []byte("input keying material")

	a, err := DeriveKey32(secret, nil, []byte("label-a"))
	require.NoError(t, err)
	b, err := DeriveKey32(secret, nil, []byte("label-b"))
	require.NoError(t, err)
	again, err := DeriveKey32(secret, nil, []byte("label-a"))
	require.NoError(t, err)

	require.Equal(t, a, again, "derivation must be deterministic")
	require.NotEqual(t, a, b, "labels must separate outputs")
}

func TestFingerprint(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)

	fp := Fingerprint(id.EdPub.Slice())
	require.Len(t, fp, 20)
	require.Equal(t, fp, Fingerprint(id.EdPub.Slice()))

	grouped := FingerprintGrouped(id.EdPub.Slice())
	require.Len(t, grouped, 24) // 20 chars + 4 spaces
}
