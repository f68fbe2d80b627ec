// Package store persists client state in a single bolt database.
//
// Identity and prekey private halves are cbor-encoded and sealed under the
// user's passphrase before they are written; session blobs are stored as
// handed over by the session layer. A schema version in the meta bucket
// guards the layout: on mismatch all sessions are wiped and peers
// re-handshake, so possibly-corrupt ratchet state is never resumed.
package store
