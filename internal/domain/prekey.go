package domain

// SignedPreKey is the medium-term handshake key, signed by the identity key.
type SignedPreKey struct {
	Pub X25519Public `json:"pub"`
	Sig []byte       `json:"sig"`
}

// OneTimePreKey is single-use handshake material. The directory hands each
// public out at most once; the private half is deleted after first use.
type OneTimePreKey struct {
	ID  string       `json:"id"`
	Pub X25519Public `json:"pub"`
}

// SignedPreKeyPair and OneTimePreKeyPair pair published publics with the
// locally held private halves.
type SignedPreKeyPair struct {
	SignedPreKey
	Priv X25519Private
}

type OneTimePreKeyPair struct {
	OneTimePreKey
	Priv X25519Private
}

// Registration is the payload published to the directory: the bundle plus
// the batch of one-time prekeys the server hands out one at a time.
type Registration struct {
	Bundle         PreKeyBundle    `json:"bundle"`
	OneTimePreKeys []OneTimePreKey `json:"oneTimePreKeys"`
}

// PreKeyBundle is what the directory serves for one (user, device). The
// one-time prekey is consumed server-side by the fetch that returns it.
type PreKeyBundle struct {
	Username              Username       `json:"username"`
	DeviceID              DeviceID       `json:"deviceId"`
	IdentityKey           Ed25519Public  `json:"identityPublicKey"`
	SignedPreKeyPub       X25519Public   `json:"signedPreKeyPublic"`
	SignedPreKeySignature []byte         `json:"signedPreKeySignature"`
	OneTime               *OneTimePreKey `json:"oneTimePreKey,omitempty"`
}

type PreKeyService interface {
	// EnsureSignedPreKey returns the current signed prekey, generating and
	// signing one if none exists yet.
	EnsureSignedPreKey(passphrase string) (SignedPreKey, error)
	GenerateOneTime(passphrase string, n int) ([]OneTimePreKey, error)
	// Bundle assembles the publishable bundle for this device.
	Bundle(passphrase string) (PreKeyBundle, error)
}

type PreKeyStore interface {
	SaveSignedPreKey(passphrase string, pair SignedPreKeyPair) error
	LoadSignedPreKey(passphrase string) (SignedPreKeyPair, bool, error)
	SaveOneTimePreKeys(passphrase string, pairs []OneTimePreKeyPair) error
	// TakeOneTimePreKey removes and returns the pair for id; single use.
	TakeOneTimePreKey(passphrase, id string) (OneTimePreKeyPair, bool, error)
}
