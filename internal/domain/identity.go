package domain

// Identity holds the long-term signing keys plus the X25519 halves derived
// from them. One Ed25519 pair backs both the prekey signatures and, after
// conversion, the identity legs of the handshake.
type Identity struct {
	EdPub  Ed25519Public
	EdPriv Ed25519Private
	XPub   X25519Public
	XPriv  X25519Private
}

type IdentityService interface {
	Generate(passphrase string) (Identity, string /*fingerprint*/, error)
	Load(passphrase string) (Identity, error)
	Fingerprint(passphrase string) (string, error)
}

type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	// LoadIdentity returns ErrNoIdentity when none has been generated.
	LoadIdentity(passphrase string) (Identity, error)
}
