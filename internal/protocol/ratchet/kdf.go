package ratchet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
)

var rootInfo = []byte("hushwire-dr-root")

// rootStep mixes a DH output into the root key via HKDF and splits the
// result into the next root key and a fresh chain key.
func rootStep(root domain.Key, dh [32]byte) (domain.Key, domain.Key, error) {
	out, err := crypto.DeriveKey(dh[:], root.Slice(), rootInfo, 64)
	if err != nil {
		return domain.Key{}, domain.Key{}, err
	}
	return domain.MustKey(out[:32]), domain.MustKey(out[32:]), nil
}

// chainStep advances a chain key one message: HMAC with distinct single-byte
// labels yields the message key and the next chain key.
func chainStep(ck domain.Key) (mk, next domain.Key) {
	return hmacKey(ck, 0x01), hmacKey(ck, 0x02)
}

func hmacKey(k domain.Key, label byte) domain.Key {
	m := hmac.New(sha256.New, k.Slice())
	m.Write([]byte{label})
	return domain.MustKey(m.Sum(nil))
}

// headerAAD binds the core ratchet header fields (ratchet pub, previous
// chain length, message number) plus any caller-supplied context into the
// AEAD associated data. Handshake fields are excluded: they are attached and
// stripped by the orchestration layer after sealing.
func headerAAD(h domain.RatchetHeader, ad []byte) []byte {
	out := make([]byte, 0, len(ad)+32+8)
	out = append(out, ad...)
	out = append(out, h.DHPublicKey[:]...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.PreviousChainLength)
	out = append(out, b[:]...)
	binary.BigEndian.PutUint32(b[:], h.MessageNumber)
	out = append(out, b[:]...)
	return out
}
