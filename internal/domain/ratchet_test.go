package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkippedKeysPutTake(t *testing.T) {
	sk := make(SkippedKeys)
	var pub X25519Public
	pub[0] = 7

	sk.Put(pub, 3, Key{1})
	k, ok := sk.Take(pub, 3)
	require.True(t, ok)
	require.Equal(t, Key{1}, k)

	// Consumed on take.
	_, ok = sk.Take(pub, 3)
	require.False(t, ok)
}

func TestSkippedKeysEvictsLowestNumbers(t *testing.T) {
	sk := make(SkippedKeys)
	var pub X25519Public

	for n := uint32(0); n < MaxSkippedKeys; n++ {
		sk.Put(pub, n, Key{byte(n)})
	}
	require.Len(t, sk, MaxSkippedKeys)

	sk.Put(pub, MaxSkippedKeys, Key{0xAA})
	require.Len(t, sk, MaxSkippedKeys)

	_, ok := sk.Take(pub, 0)
	require.False(t, ok, "lowest-numbered entry should be evicted")
	k, ok := sk.Take(pub, MaxSkippedKeys)
	require.True(t, ok)
	require.Equal(t, Key{0xAA}, k)
}

func TestSkippedKeysEvictionSpansPublicKeys(t *testing.T) {
	sk := make(SkippedKeys)
	var oldPub, newPub X25519Public
	oldPub[0], newPub[0] = 1, 2

	for n := uint32(0); n < MaxSkippedKeys/2; n++ {
		sk.Put(oldPub, n, Key{})
	}
	for n := uint32(100); n < 100+MaxSkippedKeys/2; n++ {
		sk.Put(newPub, n, Key{})
	}
	sk.Put(newPub, 500, Key{})

	require.Len(t, sk, MaxSkippedKeys)
	_, ok := sk.Take(oldPub, 0)
	require.False(t, ok, "eviction should pick the lowest number across keys")
}

func TestRatchetStatePhase(t *testing.T) {
	var st RatchetState
	require.Equal(t, PhaseSeeded, st.Phase())

	st.Send = &Chain{}
	require.Equal(t, PhaseSending, st.Phase())

	st.Send = nil
	st.Recv = &Chain{}
	require.Equal(t, PhaseReceiving, st.Phase())

	st.Send = &Chain{}
	require.Equal(t, PhaseBidirectional, st.Phase())
}

func TestRatchetStateCloneIsDeep(t *testing.T) {
	remote := X25519Public{9}
	st := RatchetState{
		Root:      Key{1},
		RemotePub: &remote,
		Send:      &Chain{Key: Key{2}, Next: 5},
		Recv:      &Chain{Key: Key{3}, Next: 7},
		Skipped:   make(SkippedKeys),
	}
	st.Skipped.Put(remote, 4, Key{4})

	cp := st.Clone()
	cp.Send.Next = 99
	*cp.RemotePub = X25519Public{8}
	cp.Skipped.Take(remote, 4)

	require.Equal(t, uint32(5), st.Send.Next)
	require.Equal(t, X25519Public{9}, *st.RemotePub)
	_, ok := st.Skipped.Take(remote, 4)
	require.True(t, ok, "clone must not share the cache map")
}

func TestDirectConversationIsSymmetric(t *testing.T) {
	require.Equal(t, DirectConversation("alice", "bob"), DirectConversation("bob", "alice"))
	require.NotEqual(t, DirectConversation("alice", "bob"), DirectConversation("alice", "carol"))
}

func TestSkippedMessageIDFormat(t *testing.T) {
	var pub X25519Public
	id := SkippedMessageID(pub, 42)
	require.True(t, strings.HasSuffix(id, ":42"))

	n, ok := skippedMessageNumber(id)
	require.True(t, ok)
	require.Equal(t, uint64(42), n)

	_, ok = skippedMessageNumber("no-separator")
	require.False(t, ok)
}
