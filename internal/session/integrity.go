package session

import (
	"fmt"

	"hushwire/internal/domain"
)

// validateIntegrity rejects sessions whose invariants no longer hold. A
// failure means the state cannot be trusted to produce or consume another
// message, so the caller deletes it and the next contact forces a fresh
// handshake.
func validateIntegrity(s *domain.ConversationSession) error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: empty conversation id", domain.ErrSessionCorrupted)
	case s.Partner == "":
		return fmt.Errorf("%w: empty partner", domain.ErrSessionCorrupted)
	case s.PartnerIdentity.IsZero():
		return fmt.Errorf("%w: partner identity key is zero", domain.ErrSessionCorrupted)
	case s.Failures < 0:
		return fmt.Errorf("%w: negative failure counter", domain.ErrSessionCorrupted)
	}

	st := &s.Ratchet
	switch {
	case st.Root.IsZero():
		return fmt.Errorf("%w: root key is zero", domain.ErrSessionCorrupted)
	case st.SelfPriv == (domain.X25519Private{}):
		return fmt.Errorf("%w: ratchet private key is zero", domain.ErrSessionCorrupted)
	case st.SelfPub.IsZero():
		return fmt.Errorf("%w: ratchet public key is zero", domain.ErrSessionCorrupted)
	case st.Send == nil && st.Recv == nil:
		return fmt.Errorf("%w: no chain in either direction", domain.ErrSessionCorrupted)
	case st.Send != nil && st.Send.Key.IsZero():
		return fmt.Errorf("%w: sending chain key is zero", domain.ErrSessionCorrupted)
	case st.Recv != nil && st.Recv.Key.IsZero():
		return fmt.Errorf("%w: receiving chain key is zero", domain.ErrSessionCorrupted)
	case st.Send != nil && st.RemotePub == nil:
		return fmt.Errorf("%w: sending chain without remote ratchet key", domain.ErrSessionCorrupted)
	case st.RemotePub != nil && st.RemotePub.IsZero():
		return fmt.Errorf("%w: remote ratchet key is zero", domain.ErrSessionCorrupted)
	case len(st.Skipped) > domain.MaxSkippedKeys:
		return fmt.Errorf("%w: skipped-key cache over bound", domain.ErrSessionCorrupted)
	}
	return nil
}
