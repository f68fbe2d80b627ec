package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyJSONEncodesBase64(t *testing.T) {
	h := RatchetHeader{
		DHPublicKey:   X25519Public{1, 2, 3},
		MessageNumber: 7,
	}
	raw, err := json.Marshal(h)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"dhPublicKey":"`)
	require.NotContains(t, string(raw), "ephemeral_key", "absent handshake fields must be omitted")

	var back RatchetHeader
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, h, back)
	require.False(t, back.HasHandshake())
}

func TestKeyJSONRejectsWrongLength(t *testing.T) {
	var p X25519Public
	err := json.Unmarshal([]byte(`"c2hvcnQ="`), &p) // "short"
	require.Error(t, err)

	var k Key
	err = json.Unmarshal([]byte(`null`), &k)
	require.Error(t, err, "null must not produce a zero key")
}

func TestHasHandshakeNeedsBothKeys(t *testing.T) {
	eph := X25519Public{1}
	idk := Ed25519Public{2}

	h := RatchetHeader{EphemeralKey: &eph}
	require.False(t, h.HasHandshake())

	h.SenderIdentityKey = &idk
	require.True(t, h.HasHandshake())
}
