// Package x3dh implements the X3DH key-agreement used to bootstrap a Double
// Ratchet session between two parties.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte secret with a responder who
// has published a prekey bundle. The bundle carries:
//   - Identity key (Ed25519, converted to X25519 for the DH legs)
//   - Signed prekey (X25519) and its Ed25519 signature
//   - Optionally one single-use one-time prekey (X25519)
//
// # Flows
//
// Initiator:
//  1. Verify the signed prekey signature; abort before any DH if invalid.
//  2. Generate an ephemeral X25519 key pair.
//  3. Compute DH1 = IK_A x SPK_B, DH2 = EK_A x IK_B, DH3 = EK_A x SPK_B and,
//     when a one-time prekey is present, DH4 = EK_A x OPK_B.
//  4. HKDF over DH1||DH2||DH3[||DH4] in that fixed order yields the secret.
//
// Responder:
//  1. Receive the handshake fields from the first message header (initiator
//     identity key, ephemeral key, optionally the consumed one-time prekey id).
//  2. Compute the mirror-image DH set with the private halves.
//  3. HKDF the same transcript to the identical secret.
//
// One identity serves both roles: the Ed25519 key signs prekeys, and its
// X25519 conversion takes part in the DH legs.
//
// # Security notes
//
// Only public material travels over the wire. One-time prekeys, when
// present, upgrade the handshake from 3-DH to 4-DH; their absence never
// fails it.
package x3dh
