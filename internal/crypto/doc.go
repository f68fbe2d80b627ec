// Package crypto exposes the primitives everything else builds on.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Ed25519 to X25519 conversion so one signing identity serves both the
//     signature and DH legs of the handshake (XPublicFromEd, XPrivateFromEd)
//   - XChaCha20-Poly1305 message sealing with fresh random nonces (Seal, Open)
//   - HKDF-SHA256 key derivation (DeriveKey, DeriveKey32)
//   - Passphrase-based at-rest sealing with Argon2id (SealRecord, OpenRecord)
//   - Short public-key fingerprints for display (Fingerprint)
//
// # Notes
//
// All functions work with the fixed-size key types defined in
// internal/domain to avoid accidental reallocations. Callers should treat
// returned secrets as sensitive and wipe them via internal/util/memzero when
// practical.
package crypto
