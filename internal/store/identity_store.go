package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"hushwire/internal/domain"
)

// SaveIdentity seals the identity under the passphrase and stores it,
// replacing any previous one.
func (s *Keystore) SaveIdentity(passphrase string, id domain.Identity) error {
	blob, err := sealRecord(passphrase, identityRecord{
		EdPub:  id.EdPub.Slice(),
		EdPriv: id.EdPriv.Slice(),
		XPub:   id.XPub.Slice(),
		XPriv:  id.XPriv.Slice(),
		At:     time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("seal identity: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(identityBucket).Put(identityKey, blob)
	})
}

// LoadIdentity returns domain.ErrNoIdentity when none has been generated
// yet, and domain.ErrPassphrase when the record does not unseal.
func (s *Keystore) LoadIdentity(passphrase string) (domain.Identity, error) {
	var blob []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(identityBucket).Get(identityKey); b != nil {
			blob = append([]byte(nil), b...)
		}
		return nil
	}); err != nil {
		return domain.Identity{}, err
	}
	if blob == nil {
		return domain.Identity{}, domain.ErrNoIdentity
	}

	var rec identityRecord
	if err := openRecord(passphrase, blob, &rec); err != nil {
		return domain.Identity{}, fmt.Errorf("open identity: %w", err)
	}
	return domain.Identity{
		EdPub:  domain.MustEd25519Public(rec.EdPub),
		EdPriv: domain.MustEd25519Private(rec.EdPriv),
		XPub:   domain.MustX25519Public(rec.XPub),
		XPriv:  domain.MustX25519Private(rec.XPriv),
	}, nil
}
