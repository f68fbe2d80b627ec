package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"hushwire/internal/domain"
)

// SaveSignedPreKey replaces the current signed prekey pair.
func (s *Keystore) SaveSignedPreKey(passphrase string, pair domain.SignedPreKeyPair) error {
	blob, err := sealRecord(passphrase, signedPreKeyRecord{
		Priv: pair.Priv.Slice(),
		Pub:  pair.Pub.Slice(),
		Sig:  append([]byte(nil), pair.Sig...),
		At:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("seal signed prekey: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(signedPreKeyBucket).Put(currentKey, blob)
	})
}

// LoadSignedPreKey reports ok=false when no signed prekey exists yet.
func (s *Keystore) LoadSignedPreKey(passphrase string) (domain.SignedPreKeyPair, bool, error) {
	var blob []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(signedPreKeyBucket).Get(currentKey); b != nil {
			blob = append([]byte(nil), b...)
		}
		return nil
	}); err != nil {
		return domain.SignedPreKeyPair{}, false, err
	}
	if blob == nil {
		return domain.SignedPreKeyPair{}, false, nil
	}

	var rec signedPreKeyRecord
	if err := openRecord(passphrase, blob, &rec); err != nil {
		return domain.SignedPreKeyPair{}, false, fmt.Errorf("open signed prekey: %w", err)
	}
	return domain.SignedPreKeyPair{
		SignedPreKey: domain.SignedPreKey{Pub: domain.MustX25519Public(rec.Pub), Sig: rec.Sig},
		Priv:         domain.MustX25519Private(rec.Priv),
	}, true, nil
}

// SaveOneTimePreKeys stores a batch of one-time prekey pairs keyed by id.
func (s *Keystore) SaveOneTimePreKeys(passphrase string, pairs []domain.OneTimePreKeyPair) error {
	now := time.Now().Unix()
	type entry struct {
		id   string
		blob []byte
	}
	sealed := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		blob, err := sealRecord(passphrase, oneTimeRecord{
			ID:   p.ID,
			Priv: p.Priv.Slice(),
			Pub:  p.Pub.Slice(),
			At:   now,
		})
		if err != nil {
			return fmt.Errorf("seal one-time prekey %s: %w", p.ID, err)
		}
		sealed = append(sealed, entry{p.ID, blob})
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(oneTimeBucket)
		for _, e := range sealed {
			if err := bkt.Put([]byte(e.id), e.blob); err != nil {
				return err
			}
		}
		return nil
	})
}

// TakeOneTimePreKey removes and returns the pair for id. The record is
// deleted only after it unseals, so a wrong passphrase does not burn the
// key.
func (s *Keystore) TakeOneTimePreKey(passphrase, id string) (domain.OneTimePreKeyPair, bool, error) {
	var (
		rec   oneTimeRecord
		found bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(oneTimeBucket)
		blob := bkt.Get([]byte(id))
		if blob == nil {
			return nil
		}
		if err := openRecord(passphrase, blob, &rec); err != nil {
			return fmt.Errorf("open one-time prekey: %w", err)
		}
		found = true
		return bkt.Delete([]byte(id))
	})
	if err != nil || !found {
		return domain.OneTimePreKeyPair{}, false, err
	}
	return domain.OneTimePreKeyPair{
		OneTimePreKey: domain.OneTimePreKey{ID: rec.ID, Pub: domain.MustX25519Public(rec.Pub)},
		Priv:          domain.MustX25519Private(rec.Priv),
	}, true, nil
}
