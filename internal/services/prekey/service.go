package prekey

import (
	"github.com/gofrs/uuid/v5"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
	"hushwire/internal/protocol/x3dh"
)

// Service manages prekey pairs and assembles the publishable bundle for the
// local (user, device).
type Service struct {
	user   domain.Username
	device domain.DeviceID
	ids    domain.IdentityStore
	ps     domain.PreKeyStore
}

func New(user domain.Username, device domain.DeviceID, ids domain.IdentityStore, ps domain.PreKeyStore) *Service {
	return &Service{user: user, device: device, ids: ids, ps: ps}
}

// EnsureSignedPreKey returns the current signed prekey, generating and
// signing a fresh one when the store holds none.
func (s *Service) EnsureSignedPreKey(passphrase string) (domain.SignedPreKey, error) {
	pair, ok, err := s.ps.LoadSignedPreKey(passphrase)
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	if ok {
		return pair.SignedPreKey, nil
	}

	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	pair = domain.SignedPreKeyPair{
		SignedPreKey: domain.SignedPreKey{
			Pub: pub,
			Sig: x3dh.SignPreKey(id, pub),
		},
		Priv: priv,
	}
	if err := s.ps.SaveSignedPreKey(passphrase, pair); err != nil {
		return domain.SignedPreKey{}, err
	}
	return pair.SignedPreKey, nil
}

// GenerateOneTime creates n single-use prekey pairs, stores the private
// halves, and returns the publics for publication.
func (s *Service) GenerateOneTime(passphrase string, n int) ([]domain.OneTimePreKey, error) {
	pairs := make([]domain.OneTimePreKeyPair, 0, n)
	publics := make([]domain.OneTimePreKey, 0, n)
	for i := 0; i < n; i++ {
		priv, pub, err := crypto.GenerateX25519()
		if err != nil {
			return nil, err
		}
		opk := domain.OneTimePreKey{
			ID:  uuid.Must(uuid.NewV4()).String(),
			Pub: pub,
		}
		pairs = append(pairs, domain.OneTimePreKeyPair{OneTimePreKey: opk, Priv: priv})
		publics = append(publics, opk)
	}
	if err := s.ps.SaveOneTimePreKeys(passphrase, pairs); err != nil {
		return nil, err
	}
	return publics, nil
}

// Bundle assembles the publishable bundle for this device. One-time prekeys
// are published separately and attached by the directory, so the bundle
// itself carries none.
func (s *Service) Bundle(passphrase string) (domain.PreKeyBundle, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	spk, err := s.EnsureSignedPreKey(passphrase)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	return domain.PreKeyBundle{
		Username:              s.user,
		DeviceID:              s.device,
		IdentityKey:           id.EdPub,
		SignedPreKeyPub:       spk.Pub,
		SignedPreKeySignature: spk.Sig,
	}, nil
}

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
