// Package identity manages creation, encryption and loading of the local identity.
//
// It enforces passphrase policy, generates the Ed25519 signing pair with its
// derived X25519 halves, and persists them via the domain.IdentityStore.
package identity
