package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"hushwire/internal/domain"
)

// schemaVersion tags the bucket layout. On mismatch the sessions bucket is
// wiped at open; identity and prekeys survive.
const schemaVersion = 1

var (
	metaBucket         = []byte("meta")
	identityBucket     = []byte("identity")
	signedPreKeyBucket = []byte("signed_prekey")
	oneTimeBucket      = []byte("one_time_prekeys")
	sessionsBucket     = []byte("sessions")

	versionKey  = []byte("schema_version")
	identityKey = []byte("identity")
	currentKey  = []byte("current")
)

// Keystore is the client's single on-disk database: identity and prekey
// private halves sealed under the passphrase, plus per-conversation session
// blobs.
type Keystore struct {
	db  *bolt.DB
	log *zap.Logger
}

// Open creates or loads the keystore at path. A schema version mismatch
// wipes stored sessions rather than attempting a migration; peers
// re-handshake on next contact.
func Open(path string, log *zap.Logger) (*Keystore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keystore dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	s := &Keystore{db: db, log: log}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init keystore: %w", err)
	}
	return s, nil
}

func (s *Keystore) Close() error { return s.db.Close() }

func (s *Keystore) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		for _, name := range [][]byte{identityBucket, signedPreKeyBucket, oneTimeBucket, sessionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		if v := meta.Get(versionKey); v != nil {
			if len(v) == 1 && v[0] == schemaVersion {
				return nil
			}
			stored := -1
			if len(v) == 1 {
				stored = int(v[0])
			}
			s.log.Warn("keystore schema version changed, wiping sessions",
				zap.Int("stored", stored), zap.Int("current", schemaVersion))
			if err := tx.DeleteBucket(sessionsBucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(sessionsBucket); err != nil {
				return err
			}
		}
		return meta.Put(versionKey, []byte{schemaVersion})
	})
}

var (
	_ domain.IdentityStore    = (*Keystore)(nil)
	_ domain.PreKeyStore      = (*Keystore)(nil)
	_ domain.SessionBlobStore = (*Keystore)(nil)
)
