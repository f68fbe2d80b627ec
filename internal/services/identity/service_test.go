package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hushwire/internal/domain"
	"hushwire/internal/services/identity"
)

const goodPassphrase = "Correct-Horse-99"

type memStore struct {
	saved map[string]domain.Identity
}

func newMemStore() *memStore { return &memStore{saved: map[string]domain.Identity{}} }

func (m *memStore) SaveIdentity(passphrase string, id domain.Identity) error {
	m.saved[passphrase] = id
	return nil
}

func (m *memStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	id, ok := m.saved[passphrase]
	if !ok {
		return domain.Identity{}, domain.ErrNoIdentity
	}
	return id, nil
}

func TestGenerateRejectsWeakPassphrases(t *testing.T) {
	svc := identity.New(newMemStore())

	for _, passphrase := range []string{
		"",
		"Sh0rt!",
		"alllowercase1!",
		"ALLUPPERCASE1!",
		"NoDigitsInHere!",
		"NoSymbolsHere12",
	} {
		_, _, err := svc.Generate(passphrase)
		require.ErrorIs(t, err, identity.ErrWeakPassphrase, "passphrase %q", passphrase)
	}
}

func TestGenerateAndLoad(t *testing.T) {
	store := newMemStore()
	svc := identity.New(store)

	id, fp, err := svc.Generate(goodPassphrase)
	require.NoError(t, err)
	require.NotEmpty(t, fp)
	require.False(t, id.EdPub.IsZero())
	require.False(t, id.XPub.IsZero())

	loaded, err := svc.Load(goodPassphrase)
	require.NoError(t, err)
	require.Equal(t, id, loaded)

	got, err := svc.Fingerprint(goodPassphrase)
	require.NoError(t, err)
	require.Equal(t, fp, got)
}

func TestLoadWithoutIdentity(t *testing.T) {
	svc := identity.New(newMemStore())

	_, err := svc.Load(goodPassphrase)
	require.ErrorIs(t, err, domain.ErrNoIdentity)
}
