// Package prekey manages the signed prekey and one-time prekeys that seed
// new sessions.
//
// It generates and signs prekey pairs, keeps the private halves in the
// store, and assembles the public bundle the directory serves to peers.
package prekey
