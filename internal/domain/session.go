package domain

import "sort"

type (
	Username       string
	DeviceID       string
	ConversationID string
	MessageID      string
)

// DefaultDeviceID is used when a deployment has no multi-device story.
const DefaultDeviceID DeviceID = "primary"

// DirectConversation derives the canonical conversation id for a 1:1 chat;
// both parties compute the same id regardless of who initiates.
func DirectConversation(a, b Username) ConversationID {
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return ConversationID("d:" + pair[0] + ":" + pair[1])
}

// PendingHandshake is the X3DH material the initiator attaches to its first
// outgoing message. It is cleared the moment it is attached; the relay's
// durable queue carries it the rest of the way.
type PendingHandshake struct {
	EphemeralKey    X25519Public
	IdentityKey     Ed25519Public
	OneTimePreKeyID string
}

// ConversationSession binds ratchet state to conversation metadata.
type ConversationSession struct {
	ID      ConversationID
	Partner Username
	// PartnerIdentity is the signing key seen at session establishment,
	// kept for fingerprint display and identity-change detection.
	PartnerIdentity Ed25519Public
	DeviceIDs       []DeviceID
	CreatedAt       int64
	LastUsedAt      int64
	Initiator       bool
	Pending         *PendingHandshake
	// Failures counts consecutive failed decrypts; the session is dropped
	// once it reaches the fallback threshold.
	Failures int
	Ratchet  RatchetState
}

// Clone returns a deep copy so callers can mutate freely and commit only on
// success.
func (s *ConversationSession) Clone() *ConversationSession {
	out := *s
	out.DeviceIDs = append([]DeviceID(nil), s.DeviceIDs...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	out.Ratchet = *s.Ratchet.Clone()
	return &out
}

// SessionBlobStore persists serialized sessions keyed by conversation.
type SessionBlobStore interface {
	PutSession(id ConversationID, blob []byte) error
	GetSession(id ConversationID) ([]byte, bool, error)
	DeleteSession(id ConversationID) error
	ListSessions() ([]ConversationID, error)
	// WipeSessions drops every stored session, used when the storage schema
	// version changes.
	WipeSessions() error
}
