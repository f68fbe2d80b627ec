package ratchet

import (
	"errors"

	"hushwire/internal/crypto"
	"hushwire/internal/domain"
	"hushwire/internal/util/memzero"
)

// MaxSkip bounds how far a receiving chain may be fast-forwarded for a
// single message. Gaps beyond it fail with domain.ErrTooManySkipped.
const MaxSkip = 1000

// ErrNotEstablished is returned when encrypting on a state that has neither
// a sending chain nor a peer key to ratchet against.
var ErrNotEstablished = errors.New("ratchet: sending side not established")

// InitAsInitiator builds state for the party that ran the initiator side of
// the handshake: one DH step against the peer's initial ratchet key gives
// the sending chain, so the initiator can send immediately.
func InitAsInitiator(shared domain.Key, peerRatchetPub domain.X25519Public) (domain.RatchetState, error) {
	remote := peerRatchetPub
	st := domain.RatchetState{
		Root:      shared,
		RemotePub: &remote,
		Skipped:   make(domain.SkippedKeys),
	}
	if err := stepSending(&st); err != nil {
		return domain.RatchetState{}, err
	}
	return st, nil
}

// InitAsResponder builds seeded state: root key from the handshake, our
// initial ratchet pair (the signed prekey the initiator computed against),
// and no chains until traffic flows.
func InitAsResponder(shared domain.Key, priv domain.X25519Private, pub domain.X25519Public) domain.RatchetState {
	return domain.RatchetState{
		Root:     shared,
		SelfPriv: priv,
		SelfPub:  pub,
		Skipped:  make(domain.SkippedKeys),
	}
}

// Encrypt derives the next message key, advances the sending chain and seals
// plaintext with the header bound as associated data. The state mutates only
// on success.
func Encrypt(st *domain.RatchetState, ad, plaintext []byte) (domain.RatchetHeader, domain.SealedBox, error) {
	work := st.Clone()

	if work.Send == nil {
		if work.RemotePub == nil {
			return domain.RatchetHeader{}, domain.SealedBox{}, ErrNotEstablished
		}
		if err := stepSending(work); err != nil {
			return domain.RatchetHeader{}, domain.SealedBox{}, err
		}
	}

	mk, next := chainStep(work.Send.Key)
	header := domain.RatchetHeader{
		DHPublicKey:         work.SelfPub,
		MessageNumber:       work.Send.Next,
		PreviousChainLength: work.PrevSend,
	}

	box, err := crypto.Seal(mk, plaintext, headerAAD(header, ad))
	memzero.Key((*[32]byte)(&mk))
	if err != nil {
		return domain.RatchetHeader{}, domain.SealedBox{}, err
	}

	work.Send.Key = next
	work.Send.Next++
	*st = *work
	return header, box, nil
}

// Decrypt opens box, absorbing DH ratchet steps and out-of-order delivery.
// It works on a copy of the state and commits only after the AEAD opens, so
// a failure of any kind leaves the caller's state exactly as it was.
func Decrypt(st *domain.RatchetState, ad []byte, header domain.RatchetHeader, box domain.SealedBox) ([]byte, error) {
	work := st.Clone()
	aad := headerAAD(header, ad)

	if work.RemotePub == nil || *work.RemotePub != header.DHPublicKey {
		// New ratchet key from the peer.
		if err := stepReceiving(work, header); err != nil {
			return nil, err
		}
	} else if mk, ok := work.Skipped.Take(*work.RemotePub, header.MessageNumber); ok {
		pt, err := crypto.Open(mk, box, aad)
		memzero.Key((*[32]byte)(&mk))
		if err != nil {
			return nil, err
		}
		*st = *work
		return pt, nil
	}

	if work.Recv == nil {
		// Header claims the pub we ratcheted against at init, but the peer
		// never sends under that key. Nothing can open this.
		return nil, domain.ErrAuthentication
	}
	if header.MessageNumber < work.Recv.Next {
		// Below the chain position with no cached key: either a replay or a
		// message older than the cache remembers.
		return nil, domain.ErrDuplicateMessage
	}
	if err := skipAhead(work, header.MessageNumber); err != nil {
		return nil, err
	}

	mk, next := chainStep(work.Recv.Key)
	pt, err := crypto.Open(mk, box, aad)
	memzero.Key((*[32]byte)(&mk))
	if err != nil {
		return nil, err
	}

	work.Recv.Key = next
	work.Recv.Next++
	*st = *work
	return pt, nil
}

// stepSending rotates our ratchet pair and derives a fresh sending chain
// from one root step against the peer's current key.
func stepSending(st *domain.RatchetState) error {
	newPriv, newPub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}
	dh, err := crypto.DH(newPriv, *st.RemotePub)
	if err != nil {
		return err
	}
	root, sendKey, err := rootStep(st.Root, dh)
	memzero.Zero(dh[:])
	if err != nil {
		return err
	}

	if st.Send != nil {
		st.PrevSend = st.Send.Next
	} else {
		st.PrevSend = 0
	}
	st.Root = root
	st.SelfPriv, st.SelfPub = newPriv, newPub
	st.Send = &domain.Chain{Key: sendKey}
	return nil
}

// stepReceiving performs a full DH ratchet for a new peer key: close out the
// old receiving chain, derive the new receiving chain, rotate our pair and
// derive the next sending chain, then drop the cache. Keys cached under the
// old public key are unreachable afterwards; that loss is accepted.
func stepReceiving(st *domain.RatchetState, header domain.RatchetHeader) error {
	if st.Recv != nil {
		if err := skipAhead(st, header.PreviousChainLength); err != nil {
			return err
		}
	}

	dhRecv, err := crypto.DH(st.SelfPriv, header.DHPublicKey)
	if err != nil {
		return err
	}
	root, recvKey, err := rootStep(st.Root, dhRecv)
	memzero.Zero(dhRecv[:])
	if err != nil {
		return err
	}

	newPriv, newPub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}
	dhSend, err := crypto.DH(newPriv, header.DHPublicKey)
	if err != nil {
		return err
	}
	root, sendKey, err := rootStep(root, dhSend)
	memzero.Zero(dhSend[:])
	if err != nil {
		return err
	}

	if st.Send != nil {
		st.PrevSend = st.Send.Next
	} else {
		st.PrevSend = 0
	}
	remote := header.DHPublicKey
	st.Root = root
	st.SelfPriv, st.SelfPub = newPriv, newPub
	st.RemotePub = &remote
	st.Recv = &domain.Chain{Key: recvKey}
	st.Send = &domain.Chain{Key: sendKey}
	st.Skipped = make(domain.SkippedKeys)
	return nil
}

// skipAhead advances the receiving chain to until, caching each intermediate
// message key so late arrivals still decrypt.
func skipAhead(st *domain.RatchetState, until uint32) error {
	if until > st.Recv.Next && until-st.Recv.Next > MaxSkip {
		return domain.ErrTooManySkipped
	}
	for st.Recv.Next < until {
		mk, next := chainStep(st.Recv.Key)
		st.Skipped.Put(*st.RemotePub, st.Recv.Next, mk)
		st.Recv.Key = next
		st.Recv.Next++
	}
	return nil
}
