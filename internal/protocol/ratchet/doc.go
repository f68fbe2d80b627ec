// Package ratchet implements the Double Ratchet algorithm following Signal's design.
//
// The algorithm maintains a root key and two message chains (send and
// receive). Each message advances a KDF chain so that keys are forward
// secure. When a party presents a new DH ratchet public key, both sides
// derive new chain keys from a new root obtained via DH.
//
// State is presence-typed: nil chains mean the corresponding direction is
// not established, and domain.Phase names the resulting stage. Encrypt and
// Decrypt mutate a copy of the state and commit only on success, so callers
// can persist the state after any outcome without risking a half-applied
// ratchet step.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialise access per conversation.
package ratchet
