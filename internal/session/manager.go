package session

import (
	"fmt"

	"go.uber.org/zap"

	"hushwire/internal/domain"
)

// Manager mediates all access to persisted sessions. Every operation on a
// conversation runs under that conversation's lock and loads fresh from the
// store, so the blob store stays the single source of truth.
type Manager struct {
	store domain.SessionBlobStore
	log   *zap.Logger
	locks *lockTable
}

func NewManager(store domain.SessionBlobStore, log *zap.Logger) *Manager {
	return &Manager{store: store, log: log, locks: newLockTable()}
}

// Update runs fn with the current session (nil when none exists) and
// persists whatever session fn returns; returning nil deletes it. The
// returned session is persisted even when fn also returns an error, so
// failure counters survive failed operations. fn's error is returned to the
// caller either way.
//
// fn runs under the conversation lock and must not call back into the
// Manager.
func (m *Manager) Update(id domain.ConversationID, fn func(cur *domain.ConversationSession) (*domain.ConversationSession, error)) error {
	l := m.locks.get(id)
	l.Lock()
	defer l.Unlock()

	cur, err := m.load(id)
	if err != nil {
		return err
	}

	next, opErr := fn(cur)

	if err := m.persist(id, cur, next); err != nil {
		if opErr != nil {
			m.log.Warn("session not persisted after failed operation",
				zap.String("conversation", string(id)), zap.Error(err))
			return opErr
		}
		return err
	}
	return opErr
}

// Get returns the session for id. Corrupt or invalid state is dropped and
// reported as absent.
func (m *Manager) Get(id domain.ConversationID) (*domain.ConversationSession, bool, error) {
	l := m.locks.get(id)
	l.Lock()
	defer l.Unlock()

	s, err := m.load(id)
	if err != nil {
		return nil, false, err
	}
	return s, s != nil, nil
}

// List reports the conversations with a stored session.
func (m *Manager) List() ([]domain.ConversationID, error) {
	return m.store.ListSessions()
}

// Delete removes a session; deleting a missing session is not an error.
func (m *Manager) Delete(id domain.ConversationID) error {
	l := m.locks.get(id)
	l.Lock()
	defer l.Unlock()
	return m.store.DeleteSession(id)
}

// Wipe drops every stored session.
func (m *Manager) Wipe() error {
	return m.store.WipeSessions()
}

// load reads and validates one session. Corruption is handled here: the
// offending blob is deleted, a warning logged, and the session reported
// absent so the caller rebuilds it through a fresh handshake.
func (m *Manager) load(id domain.ConversationID) (*domain.ConversationSession, error) {
	blob, ok, err := m.store.GetSession(id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	s, err := Deserialize(blob)
	if err == nil {
		err = validateIntegrity(s)
	}
	if err != nil {
		m.log.Warn("dropping corrupted session",
			zap.String("conversation", string(id)), zap.Error(err))
		if derr := m.store.DeleteSession(id); derr != nil {
			return nil, fmt.Errorf("drop corrupted session: %w", derr)
		}
		return nil, nil
	}
	return s, nil
}

// persist writes next, deletes the session when next is nil, and leaves the
// store untouched when there is nothing to do.
func (m *Manager) persist(id domain.ConversationID, cur, next *domain.ConversationSession) error {
	if next == nil {
		if cur == nil {
			return nil
		}
		return m.store.DeleteSession(id)
	}
	if err := validateIntegrity(next); err != nil {
		return err
	}
	blob, err := Serialize(next)
	if err != nil {
		return err
	}
	return m.store.PutSession(id, blob)
}
