package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// MaxSkippedKeys bounds the per-conversation skipped-key cache. Inserting
// beyond it evicts the lowest-numbered entry.
const MaxSkippedKeys = 200

// Chain is one direction of a ratchet: the current chain key and the number
// of the next message in that chain.
type Chain struct {
	Key  Key
	Next uint32
}

// RatchetState is the Double Ratchet state for one conversation.
//
// Nil fields encode which stage the ratchet is in rather than zero values
// standing in for "absent": a fresh responder has no chains and no remote
// key, an initiator starts with only a sending chain, and both chains are
// set once traffic has flowed both ways. Phase reports the stage.
type RatchetState struct {
	Root Key

	SelfPriv X25519Private
	SelfPub  X25519Public

	// RemotePub is the peer's current ratchet public key, nil until the
	// first incoming message (or the peer's signed prekey on the initiator
	// side).
	RemotePub *X25519Public

	Send *Chain
	Recv *Chain

	// PrevSend is the length of the previous sending chain, carried in
	// outgoing headers so the peer can close out the old chain.
	PrevSend uint32

	Skipped SkippedKeys
}

// Phase identifies which establishment stage a ratchet is in.
type Phase int

const (
	// PhaseSeeded: responder state fresh out of the handshake, no traffic yet.
	PhaseSeeded Phase = iota
	// PhaseSending: a sending chain exists but nothing has been received.
	PhaseSending
	// PhaseReceiving: a receiving chain exists but nothing has been sent.
	PhaseReceiving
	// PhaseBidirectional: both chains are established.
	PhaseBidirectional
)

func (p Phase) String() string {
	switch p {
	case PhaseSeeded:
		return "seeded"
	case PhaseSending:
		return "sending"
	case PhaseReceiving:
		return "receiving"
	case PhaseBidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

func (s *RatchetState) Phase() Phase {
	switch {
	case s.Send != nil && s.Recv != nil:
		return PhaseBidirectional
	case s.Send != nil:
		return PhaseSending
	case s.Recv != nil:
		return PhaseReceiving
	default:
		return PhaseSeeded
	}
}

// Clone returns a deep copy. Ratchet operations mutate a copy and commit it
// only on success, so a failed decrypt never leaves partial state behind.
func (s *RatchetState) Clone() *RatchetState {
	out := *s
	if s.RemotePub != nil {
		p := *s.RemotePub
		out.RemotePub = &p
	}
	if s.Send != nil {
		c := *s.Send
		out.Send = &c
	}
	if s.Recv != nil {
		c := *s.Recv
		out.Recv = &c
	}
	out.Skipped = s.Skipped.Clone()
	return &out
}

// SkippedKeys caches message keys derived for not-yet-arrived messages,
// keyed by SkippedMessageID.
type SkippedKeys map[string]Key

// SkippedMessageID identifies a cached key by ratchet public key and
// message number.
func SkippedMessageID(pub X25519Public, n uint32) string {
	return base64.StdEncoding.EncodeToString(pub[:]) + ":" + strconv.FormatUint(uint64(n), 10)
}

// Put inserts a key, evicting the lowest-numbered entry once the cache holds
// MaxSkippedKeys.
func (sk SkippedKeys) Put(pub X25519Public, n uint32, k Key) {
	for len(sk) >= MaxSkippedKeys {
		sk.evictLowest()
	}
	sk[SkippedMessageID(pub, n)] = k
}

// Take removes and returns the cached key for (pub, n).
func (sk SkippedKeys) Take(pub X25519Public, n uint32) (Key, bool) {
	id := SkippedMessageID(pub, n)
	k, ok := sk[id]
	if ok {
		delete(sk, id)
	}
	return k, ok
}

func (sk SkippedKeys) Clone() SkippedKeys {
	if sk == nil {
		return nil
	}
	out := make(SkippedKeys, len(sk))
	for id, k := range sk {
		out[id] = k
	}
	return out
}

func (sk SkippedKeys) evictLowest() {
	var (
		victim string
		lowest uint64
		found  bool
	)
	for id := range sk {
		n, ok := skippedMessageNumber(id)
		if !ok {
			// Unparseable id, drop it first.
			victim = id
			found = true
			break
		}
		if !found || n < lowest {
			victim, lowest, found = id, n, true
		}
	}
	if found {
		delete(sk, victim)
	}
}

func skippedMessageNumber(id string) (uint64, bool) {
	i := strings.LastIndexByte(id, ':')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 32)
	return n, err == nil
}
