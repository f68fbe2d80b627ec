package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"hushwire/internal/domain"
)

// blobVersion tags the serialized session layout. A blob carrying any other
// version is treated as corrupt and dropped; the store's schema version is
// checked separately at open.
const blobVersion = 1

// sessionBlob is the JSON document persisted per conversation. Key material
// encodes as base64 strings, and Serialize wraps the whole document in
// base64 once more so stores handle it as an opaque blob.
type sessionBlob struct {
	Version            int                   `json:"version"`
	ConversationID     domain.ConversationID `json:"conversationId"`
	Partner            domain.Username       `json:"partner"`
	PartnerIdentityKey domain.Ed25519Public  `json:"partnerIdentityKey"`
	DeviceIDs          []domain.DeviceID     `json:"deviceIds"`
	CreatedAt          int64                 `json:"createdAt"`
	LastUsedAt         int64                 `json:"lastUsedAt"`
	Initiator          bool                  `json:"initiator"`
	Pending            *handshakeBlob        `json:"pendingHandshake,omitempty"`
	Failures           int                   `json:"consecutiveFailures"`
	Ratchet            ratchetBlob           `json:"ratchet"`
}

// handshakeBlob mirrors the header fields the initiator repeats until the
// first reply arrives.
type handshakeBlob struct {
	EphemeralKey      domain.X25519Public  `json:"ephemeralKey"`
	SenderIdentityKey domain.Ed25519Public `json:"senderIdentityKey"`
	OneTimePreKeyID   string               `json:"oneTimePreKeyId,omitempty"`
}

// ratchetBlob flattens RatchetState. Chain presence is encoded by the chain
// key being present: an absent sendingChainKey means no sending chain, in
// which case sendingMessageNumber is zero and ignored on load.
type ratchetBlob struct {
	RootKey                domain.Key           `json:"rootKey"`
	SendingChainKey        *domain.Key          `json:"sendingChainKey,omitempty"`
	SendingRatchetPrivate  domain.X25519Private `json:"sendingRatchetPrivateKey"`
	SendingMessageNumber   uint32               `json:"sendingMessageNumber"`
	ReceivingChainKey      *domain.Key          `json:"receivingChainKey,omitempty"`
	ReceivingMessageNumber uint32               `json:"receivingMessageNumber"`
	DHSendingPublicKey     domain.X25519Public  `json:"dhSendingPublicKey"`
	DHReceivingPublicKey   *domain.X25519Public `json:"dhReceivingPublicKey,omitempty"`
	PreviousChainLength    uint32               `json:"previousChainLength"`
	SkippedMessageKeys     [][2]string          `json:"skippedMessageKeys"`
}

// Serialize encodes a session as a versioned, base64-wrapped JSON blob.
func Serialize(s *domain.ConversationSession) ([]byte, error) {
	b := sessionBlob{
		Version:            blobVersion,
		ConversationID:     s.ID,
		Partner:            s.Partner,
		PartnerIdentityKey: s.PartnerIdentity,
		DeviceIDs:          s.DeviceIDs,
		CreatedAt:          s.CreatedAt,
		LastUsedAt:         s.LastUsedAt,
		Initiator:          s.Initiator,
		Failures:           s.Failures,
		Ratchet: ratchetBlob{
			RootKey:               s.Ratchet.Root,
			SendingRatchetPrivate: s.Ratchet.SelfPriv,
			DHSendingPublicKey:    s.Ratchet.SelfPub,
			DHReceivingPublicKey:  s.Ratchet.RemotePub,
			PreviousChainLength:   s.Ratchet.PrevSend,
			SkippedMessageKeys:    make([][2]string, 0, len(s.Ratchet.Skipped)),
		},
	}
	if s.Pending != nil {
		b.Pending = &handshakeBlob{
			EphemeralKey:      s.Pending.EphemeralKey,
			SenderIdentityKey: s.Pending.IdentityKey,
			OneTimePreKeyID:   s.Pending.OneTimePreKeyID,
		}
	}
	if c := s.Ratchet.Send; c != nil {
		key := c.Key
		b.Ratchet.SendingChainKey = &key
		b.Ratchet.SendingMessageNumber = c.Next
	}
	if c := s.Ratchet.Recv; c != nil {
		key := c.Key
		b.Ratchet.ReceivingChainKey = &key
		b.Ratchet.ReceivingMessageNumber = c.Next
	}
	for id, k := range s.Ratchet.Skipped {
		b.Ratchet.SkippedMessageKeys = append(b.Ratchet.SkippedMessageKeys,
			[2]string{id, base64.StdEncoding.EncodeToString(k.Slice())})
	}
	sort.Slice(b.Ratchet.SkippedMessageKeys, func(i, j int) bool {
		return b.Ratchet.SkippedMessageKeys[i][0] < b.Ratchet.SkippedMessageKeys[j][0]
	})

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// Deserialize decodes a blob produced by Serialize. Every decoding failure
// is reported as domain.ErrSessionCorrupted so callers drop the session and
// let the next message force a fresh handshake.
func Deserialize(blob []byte) (*domain.ConversationSession, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(blob)))
	n, err := base64.StdEncoding.Decode(raw, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionCorrupted, err)
	}
	var b sessionBlob
	if err := json.Unmarshal(raw[:n], &b); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionCorrupted, err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("%w: blob version %d", domain.ErrSessionCorrupted, b.Version)
	}

	s := &domain.ConversationSession{
		ID:              b.ConversationID,
		Partner:         b.Partner,
		PartnerIdentity: b.PartnerIdentityKey,
		DeviceIDs:       b.DeviceIDs,
		CreatedAt:       b.CreatedAt,
		LastUsedAt:      b.LastUsedAt,
		Initiator:       b.Initiator,
		Failures:        b.Failures,
		Ratchet: domain.RatchetState{
			Root:      b.Ratchet.RootKey,
			SelfPriv:  b.Ratchet.SendingRatchetPrivate,
			SelfPub:   b.Ratchet.DHSendingPublicKey,
			RemotePub: b.Ratchet.DHReceivingPublicKey,
			PrevSend:  b.Ratchet.PreviousChainLength,
			Skipped:   make(domain.SkippedKeys, len(b.Ratchet.SkippedMessageKeys)),
		},
	}
	if b.Pending != nil {
		s.Pending = &domain.PendingHandshake{
			EphemeralKey:    b.Pending.EphemeralKey,
			IdentityKey:     b.Pending.SenderIdentityKey,
			OneTimePreKeyID: b.Pending.OneTimePreKeyID,
		}
	}
	if b.Ratchet.SendingChainKey != nil {
		s.Ratchet.Send = &domain.Chain{Key: *b.Ratchet.SendingChainKey, Next: b.Ratchet.SendingMessageNumber}
	}
	if b.Ratchet.ReceivingChainKey != nil {
		s.Ratchet.Recv = &domain.Chain{Key: *b.Ratchet.ReceivingChainKey, Next: b.Ratchet.ReceivingMessageNumber}
	}
	for _, pair := range b.Ratchet.SkippedMessageKeys {
		k, err := base64.StdEncoding.DecodeString(pair[1])
		if err != nil || len(k) != 32 {
			return nil, fmt.Errorf("%w: skipped key %q", domain.ErrSessionCorrupted, pair[0])
		}
		s.Ratchet.Skipped[pair[0]] = domain.MustKey(k)
	}
	return s, nil
}
