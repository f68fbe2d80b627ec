package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap/zaptest"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
	"hushwire/internal/store"
)

func openStore(t *testing.T) *store.Keystore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "keys.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIdentityRoundTrip(t *testing.T) {
	s := openStore(t)

	_, err := s.LoadIdentity("pass")
	require.ErrorIs(t, err, domain.ErrNoIdentity)

	id, err := crypto.NewIdentity()
	require.NoError(t, err)
	require.NoError(t, s.SaveIdentity("pass", id))

	got, err := s.LoadIdentity("pass")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = s.LoadIdentity("wrong")
	require.ErrorIs(t, err, domain.ErrPassphrase)
}

func TestSignedPreKeyRoundTrip(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.LoadSignedPreKey("pass")
	require.NoError(t, err)
	require.False(t, ok)

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	pair := domain.SignedPreKeyPair{
		SignedPreKey: domain.SignedPreKey{Pub: pub, Sig: []byte("prekey signature")},
		Priv:         priv,
	}
	require.NoError(t, s.SaveSignedPreKey("pass", pair))

	got, ok, err := s.LoadSignedPreKey("pass")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pair, got)
}

func TestOneTimePreKeysSingleUse(t *testing.T) {
	s := openStore(t)

	var pairs []domain.OneTimePreKeyPair
	for _, id := range []string{"opk-a", "opk-b", "opk-c"} {
		priv, pub, err := crypto.GenerateX25519()
		require.NoError(t, err)
		pairs = append(pairs, domain.OneTimePreKeyPair{
			OneTimePreKey: domain.OneTimePreKey{ID: id, Pub: pub},
			Priv:          priv,
		})
	}
	require.NoError(t, s.SaveOneTimePreKeys("pass", pairs))

	got, ok, err := s.TakeOneTimePreKey("pass", "opk-b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pairs[1], got)

	_, ok, err = s.TakeOneTimePreKey("pass", "opk-b")
	require.NoError(t, err)
	require.False(t, ok)

	// A failed unseal must not burn the key.
	_, _, err = s.TakeOneTimePreKey("wrong", "opk-a")
	require.ErrorIs(t, err, domain.ErrPassphrase)
	_, ok, err = s.TakeOneTimePreKey("pass", "opk-a")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.TakeOneTimePreKey("pass", "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionBlobs(t *testing.T) {
	s := openStore(t)
	id := domain.ConversationID("d:alice:bob")

	_, ok, err := s.GetSession(id)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.PutSession(id, []byte("blob-1")))
	require.NoError(t, s.PutSession("d:alice:carol", []byte("blob-2")))

	blob, ok, err := s.GetSession(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("blob-1"), blob)

	ids, err := s.ListSessions()
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.ConversationID{id, "d:alice:carol"}, ids)

	require.NoError(t, s.DeleteSession(id))
	_, ok, err = s.GetSession(id)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.WipeSessions())
	ids, err = s.ListSessions()
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestSchemaMismatchWipesSessionsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")

	s, err := store.Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	id, err := crypto.NewIdentity()
	require.NoError(t, err)
	require.NoError(t, s.SaveIdentity("pass", id))
	require.NoError(t, s.PutSession("d:alice:bob", []byte("blob")))
	require.NoError(t, s.Close())

	// Pretend an older build wrote the database.
	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("meta")).Put([]byte("schema_version"), []byte{0})
	}))
	require.NoError(t, db.Close())

	s, err = store.Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.ListSessions()
	require.NoError(t, err)
	require.Empty(t, ids)

	got, err := s.LoadIdentity("pass")
	require.NoError(t, err)
	require.Equal(t, id, got)
}
