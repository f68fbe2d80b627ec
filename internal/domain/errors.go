package domain

import "errors"

// Failure kinds shared across layers. Callers branch with errors.Is; anything
// not listed here stays an ordinary wrapped error.
var (
	// ErrSignatureVerification: a prekey bundle's signed prekey failed
	// verification against the advertised identity key.
	ErrSignatureVerification = errors.New("prekey signature verification failed")

	// ErrAuthentication: an AEAD open failed, meaning key mismatch or a
	// tampered ciphertext.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrTooManySkipped: the gap implied by an incoming header exceeds the
	// per-chain skip limit. The session is left untouched.
	ErrTooManySkipped = errors.New("too many skipped messages")

	// ErrDuplicateMessage: the header counter points below the receiving
	// chain with no cached key, so the message was already consumed or is
	// older than the cache remembers.
	ErrDuplicateMessage = errors.New("duplicate or delayed message")

	// ErrSessionCorrupted: a stored session failed its integrity check.
	ErrSessionCorrupted = errors.New("session state corrupted")

	// ErrMissingHandshake: an envelope for an unknown conversation carries no
	// X3DH material, so no session can be built for it.
	ErrMissingHandshake = errors.New("no session and no handshake material")

	// ErrMalformedEnvelope: the envelope failed schema validation before any
	// cryptographic work.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrNoIdentity: no identity key has been generated on this device yet.
	ErrNoIdentity = errors.New("no identity key stored")

	// ErrPassphrase: an at-rest record failed to unseal. A wrong passphrase
	// and a corrupted record are indistinguishable.
	ErrPassphrase = errors.New("wrong passphrase or corrupted record")
)
