package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
	"hushwire/internal/protocol/ratchet"
	"hushwire/internal/protocol/x3dh"
	"hushwire/internal/session"
)

// maxDecryptFailures is the number of consecutive authentication failures a
// session survives. At the threshold the session is dropped so the next
// exchange starts from a fresh handshake.
const maxDecryptFailures = 3

// Service turns plaintext into relay envelopes and back. It owns the
// orchestration the protocol packages stay out of: session bootstrap on
// first contact, handshake attachment, the resync path when a peer has
// re-established, and the failure counter that eventually drops a dead
// session.
type Service struct {
	user      domain.Username
	device    domain.DeviceID
	ids       domain.IdentityStore
	prekeys   domain.PreKeyStore
	sessions  *session.Manager
	directory domain.Directory
	transport domain.Transport
	log       *zap.Logger
}

func New(
	user domain.Username,
	device domain.DeviceID,
	ids domain.IdentityStore,
	prekeys domain.PreKeyStore,
	sessions *session.Manager,
	directory domain.Directory,
	transport domain.Transport,
	log *zap.Logger,
) *Service {
	return &Service{
		user:      user,
		device:    device,
		ids:       ids,
		prekeys:   prekeys,
		sessions:  sessions,
		directory: directory,
		transport: transport,
		log:       log,
	}
}

// Send encrypts plaintext for partner and posts the envelope.
//
// First contact fetches the partner's bundle, runs the handshake and builds
// the session inside the conversation lock; the X3DH material rides on this
// one envelope and is cleared from the session in the same commit. The
// session is persisted before the envelope leaves: a crash after commit
// costs one message key, which the peer's skipped-key cache absorbs.
func (s *Service) Send(ctx context.Context, passphrase string, partner domain.Username, plaintext []byte) (domain.Envelope, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.Envelope{}, err
	}

	convID := domain.DirectConversation(s.user, partner)
	var env domain.Envelope

	err = s.sessions.Update(convID, func(cur *domain.ConversationSession) (*domain.ConversationSession, error) {
		if cur == nil {
			fresh, err := s.initiate(ctx, id, convID, partner)
			if err != nil {
				return nil, err
			}
			cur = fresh
		}

		header, box, err := ratchet.Encrypt(&cur.Ratchet, []byte(convID), plaintext)
		if err != nil {
			return cur, err
		}
		if cur.Pending != nil {
			eph := cur.Pending.EphemeralKey
			ik := cur.Pending.IdentityKey
			header.EphemeralKey = &eph
			header.SenderIdentityKey = &ik
			header.OneTimePreKeyID = cur.Pending.OneTimePreKeyID
			cur.Pending = nil
		}
		cur.LastUsedAt = time.Now().Unix()

		env = domain.Envelope{
			ID:           domain.MessageID(uuid.Must(uuid.NewV4()).String()),
			Conversation: convID,
			From:         s.user,
			To:           partner,
			Header:       header,
			Box:          box,
			Timestamp:    time.Now().Unix(),
		}
		return cur, nil
	})
	if err != nil {
		return domain.Envelope{}, err
	}

	if err := s.transport.SendEnvelope(ctx, env); err != nil {
		return env, fmt.Errorf("send envelope: %w", err)
	}
	return env, nil
}

// initiate fetches partner's bundle and builds a fresh initiator session.
// The handshake material is parked on the session until Send attaches it to
// the first envelope.
func (s *Service) initiate(ctx context.Context, id domain.Identity, convID domain.ConversationID, partner domain.Username) (*domain.ConversationSession, error) {
	bundle, err := s.directory.FetchPreKeyBundle(ctx, partner, domain.DefaultDeviceID)
	if err != nil {
		return nil, fmt.Errorf("fetch bundle for %q: %w", partner, err)
	}

	shared, eph, err := x3dh.Initiate(id, bundle)
	if err != nil {
		return nil, err
	}
	st, err := ratchet.InitAsInitiator(shared, bundle.SignedPreKeyPub)
	if err != nil {
		return nil, err
	}

	pending := &domain.PendingHandshake{
		EphemeralKey: eph,
		IdentityKey:  id.EdPub,
	}
	if bundle.OneTime != nil {
		pending.OneTimePreKeyID = bundle.OneTime.ID
	}

	now := time.Now().Unix()
	return &domain.ConversationSession{
		ID:              convID,
		Partner:         partner,
		PartnerIdentity: bundle.IdentityKey,
		DeviceIDs:       []domain.DeviceID{bundle.DeviceID},
		CreatedAt:       now,
		LastUsedAt:      now,
		Initiator:       true,
		Pending:         pending,
		Ratchet:         st,
	}, nil
}

// Receive processes one inbound envelope.
//
// Unknown conversation: the envelope must carry handshake material, which
// bootstraps a responder session; bootstrap and first decrypt commit
// together or not at all. Known conversation: decrypt against stored state.
// An authentication failure on an envelope that carries a handshake means
// the peer re-established, so the session is rebuilt from that handshake
// and the decrypt retried once. Without a handshake the failure counts
// toward the drop threshold.
func (s *Service) Receive(ctx context.Context, passphrase string, env domain.Envelope) (domain.InboundMessage, error) {
	if err := validateEnvelope(env); err != nil {
		return domain.InboundMessage{}, err
	}
	if env.From == s.user {
		// Relay loopback of our own send. Message keys are not retained, so
		// there is nothing to decrypt.
		return domain.InboundMessage{
			ID:           env.ID,
			Conversation: env.Conversation,
			From:         env.From,
			Echo:         true,
			Timestamp:    env.Timestamp,
		}, nil
	}

	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.InboundMessage{}, err
	}

	var msg domain.InboundMessage
	err = s.sessions.Update(env.Conversation, func(cur *domain.ConversationSession) (*domain.ConversationSession, error) {
		if cur == nil {
			next, plain, err := s.respond(passphrase, id, env)
			if err != nil {
				return nil, err
			}
			msg = inbound(env, plain)
			return next, nil
		}

		plain, err := ratchet.Decrypt(&cur.Ratchet, []byte(env.Conversation), env.Header, env.Box)
		if err == nil {
			cur.Failures = 0
			cur.LastUsedAt = time.Now().Unix()
			msg = inbound(env, plain)
			return cur, nil
		}

		switch {
		case errors.Is(err, domain.ErrDuplicateMessage), errors.Is(err, domain.ErrTooManySkipped):
			// State is untouched; neither counts toward the drop threshold.
			return cur, err

		case errors.Is(err, domain.ErrAuthentication):
			if env.Header.HasHandshake() {
				// The peer lost our session and re-established. Rebuild as
				// responder from the attached handshake and retry once.
				s.log.Info("rebuilding session from handshake after failed decrypt",
					zap.String("conversation", string(env.Conversation)))
				next, plain, rerr := s.respond(passphrase, id, env)
				if rerr != nil {
					return nil, fmt.Errorf("resync failed: %w", rerr)
				}
				msg = inbound(env, plain)
				return next, nil
			}

			cur.Failures++
			if cur.Failures >= maxDecryptFailures {
				s.log.Warn("dropping session after repeated decrypt failures",
					zap.String("conversation", string(env.Conversation)),
					zap.Int("failures", cur.Failures))
				return nil, err
			}
			return cur, err

		default:
			return cur, err
		}
	})
	if err != nil {
		return domain.InboundMessage{}, err
	}
	return msg, nil
}

// respond builds a responder session from the envelope's handshake material
// and decrypts the envelope against it. Nothing is returned for persistence
// unless the decrypt succeeds.
func (s *Service) respond(passphrase string, id domain.Identity, env domain.Envelope) (*domain.ConversationSession, []byte, error) {
	if !env.Header.HasHandshake() {
		return nil, nil, domain.ErrMissingHandshake
	}

	spk, ok, err := s.prekeys.LoadSignedPreKey(passphrase)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("handshake targets a signed prekey this device does not hold: %w", domain.ErrAuthentication)
	}

	var opk *domain.OneTimePreKeyPair
	if env.Header.OneTimePreKeyID != "" {
		pair, ok, err := s.prekeys.TakeOneTimePreKey(passphrase, env.Header.OneTimePreKeyID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("one-time prekey %q already consumed: %w", env.Header.OneTimePreKeyID, domain.ErrAuthentication)
		}
		opk = &pair
	}

	shared, err := x3dh.Respond(id, spk, *env.Header.SenderIdentityKey, *env.Header.EphemeralKey, opk)
	if err != nil {
		return nil, nil, err
	}

	next := &domain.ConversationSession{
		ID:              env.Conversation,
		Partner:         env.From,
		PartnerIdentity: *env.Header.SenderIdentityKey,
		DeviceIDs:       []domain.DeviceID{domain.DefaultDeviceID},
		CreatedAt:       time.Now().Unix(),
		LastUsedAt:      time.Now().Unix(),
		Ratchet:         ratchet.InitAsResponder(shared, spk.Priv, spk.Pub),
	}
	plain, err := ratchet.Decrypt(&next.Ratchet, []byte(env.Conversation), env.Header, env.Box)
	if err != nil {
		return nil, nil, err
	}
	return next, plain, nil
}

// validateEnvelope rejects anything structurally unusable before key
// material is touched.
func validateEnvelope(env domain.Envelope) error {
	switch {
	case env.ID == "":
		return fmt.Errorf("%w: empty id", domain.ErrMalformedEnvelope)
	case env.From == "" || env.To == "":
		return fmt.Errorf("%w: missing sender or recipient", domain.ErrMalformedEnvelope)
	case env.Conversation == "":
		return fmt.Errorf("%w: empty conversation id", domain.ErrMalformedEnvelope)
	case env.Conversation != domain.DirectConversation(env.From, env.To):
		return fmt.Errorf("%w: conversation id does not match sender and recipient", domain.ErrMalformedEnvelope)
	case env.Header.DHPublicKey.IsZero():
		return fmt.Errorf("%w: zero ratchet key", domain.ErrMalformedEnvelope)
	case len(env.Box.Nonce) != crypto.NonceSize:
		return fmt.Errorf("%w: bad nonce length %d", domain.ErrMalformedEnvelope, len(env.Box.Nonce))
	case len(env.Box.Ciphertext) == 0:
		return fmt.Errorf("%w: empty ciphertext", domain.ErrMalformedEnvelope)
	case (env.Header.EphemeralKey == nil) != (env.Header.SenderIdentityKey == nil):
		return fmt.Errorf("%w: partial handshake material", domain.ErrMalformedEnvelope)
	}
	return nil
}

func inbound(env domain.Envelope, plain []byte) domain.InboundMessage {
	return domain.InboundMessage{
		ID:           env.ID,
		Conversation: env.Conversation,
		From:         env.From,
		Plaintext:    plain,
		Timestamp:    env.Timestamp,
	}
}

// FailureReason maps a Receive error to the stable reason string reported
// back to the relay.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedEnvelope):
		return "malformed"
	case errors.Is(err, domain.ErrMissingHandshake):
		return "missing_handshake"
	case errors.Is(err, domain.ErrDuplicateMessage):
		return "duplicate"
	case errors.Is(err, domain.ErrTooManySkipped):
		return "too_many_skipped"
	case errors.Is(err, domain.ErrSessionCorrupted):
		return "session_corrupted"
	case errors.Is(err, domain.ErrAuthentication):
		return "authentication"
	default:
		return "error"
	}
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
