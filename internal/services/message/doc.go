// Package message turns plaintext into relay envelopes and back.
//
// It sits above the protocol packages and owns session orchestration:
// bootstrapping on first contact, attaching handshake material to the first
// envelope, rebuilding a session when the peer re-established, and dropping
// one after repeated decrypt failures.
package message
