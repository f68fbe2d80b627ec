package store

import (
	"github.com/fxamacker/cbor/v2"

	"hushwire/internal/crypto"
)

// Sealed record layouts. These are private to the keystore, cbor-encoded and
// passphrase-sealed before they touch bolt. Key material is flattened to
// byte slices; lengths are re-checked on load.

type identityRecord struct {
	EdPub  []byte
	EdPriv []byte
	XPub   []byte
	XPriv  []byte
	At     int64
}

type signedPreKeyRecord struct {
	Priv []byte
	Pub  []byte
	Sig  []byte
	At   int64
}

type oneTimeRecord struct {
	ID   string
	Priv []byte
	Pub  []byte
	At   int64
}

func sealRecord(passphrase string, v any) ([]byte, error) {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	return crypto.SealRecord(passphrase, raw)
}

func openRecord(passphrase string, blob []byte, v any) error {
	raw, err := crypto.OpenRecord(passphrase, blob)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(raw, v)
}
