package store

import (
	bolt "go.etcd.io/bbolt"

	"hushwire/internal/domain"
)

// Session blobs are stored exactly as handed over: the session layer owns
// their versioned layout and the keystore treats them as opaque.

func (s *Keystore) PutSession(id domain.ConversationID, blob []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(id), blob)
	})
}

func (s *Keystore) GetSession(id domain.ConversationID) ([]byte, bool, error) {
	var blob []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(sessionsBucket).Get([]byte(id)); b != nil {
			blob = append([]byte(nil), b...)
		}
		return nil
	}); err != nil {
		return nil, false, err
	}
	return blob, blob != nil, nil
}

func (s *Keystore) DeleteSession(id domain.ConversationID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

func (s *Keystore) ListSessions() ([]domain.ConversationID, error) {
	var ids []domain.ConversationID
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, domain.ConversationID(k))
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Keystore) WipeSessions() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(sessionsBucket)
		return err
	})
}
