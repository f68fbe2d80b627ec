package domain

import "context"

// SealedBox is an XChaCha20-Poly1305 ciphertext together with its nonce.
type SealedBox struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// RatchetHeader rides alongside every ciphertext. The handshake fields are
// set only while the initiator has not yet seen a reply; everything else is
// present on every message.
type RatchetHeader struct {
	DHPublicKey         X25519Public `json:"dhPublicKey"`
	MessageNumber       uint32       `json:"messageNumber"`
	PreviousChainLength uint32       `json:"previousChainLength"`

	EphemeralKey      *X25519Public  `json:"ephemeralKey,omitempty"`
	SenderIdentityKey *Ed25519Public `json:"senderIdentityKey,omitempty"`
	OneTimePreKeyID   string         `json:"oneTimePreKeyId,omitempty"`
}

// HasHandshake reports whether the header carries X3DH bootstrap material.
func (h RatchetHeader) HasHandshake() bool {
	return h.EphemeralKey != nil && h.SenderIdentityKey != nil
}

// Envelope is the wire unit exchanged through the relay.
type Envelope struct {
	ID           MessageID      `json:"id"`
	Conversation ConversationID `json:"conversationId"`
	From         Username       `json:"from"`
	To           Username       `json:"to"`
	Header       RatchetHeader  `json:"header"`
	Box          SealedBox      `json:"envelope"`
	Timestamp    int64          `json:"timestamp"`
}

// InboundMessage is the outcome of processing one envelope.
type InboundMessage struct {
	ID           MessageID
	Conversation ConversationID
	From         Username
	Plaintext    []byte
	// Echo marks a self-authored copy looped back by the relay; nothing was
	// decrypted.
	Echo      bool
	Timestamp int64
}

// MessageService encrypts outgoing plaintext and processes inbound
// envelopes.
type MessageService interface {
	Send(ctx context.Context, passphrase string, partner Username, plaintext []byte) (Envelope, error)
	Receive(ctx context.Context, passphrase string, env Envelope) (InboundMessage, error)
}
