// Package memzero provides best-effort wiping of key material.
package memzero

import "crypto/subtle"

// Zero overwrites b with zeros in a constant-time friendly way.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}

// Key wipes a fixed-size key in place.
func Key(k *[32]byte) {
	if k == nil {
		return
	}
	Zero(k[:])
}
