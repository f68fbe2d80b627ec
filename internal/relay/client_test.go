package relay_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"hushwire/internal/domain"
	"hushwire/internal/relay"
)

func testEnvelope(id string, n uint32) domain.Envelope {
	var pub domain.X25519Public
	pub[0] = byte(n + 1)
	return domain.Envelope{
		ID:           domain.MessageID(id),
		Conversation: "d:alice:bob",
		From:         "alice",
		To:           "bob",
		Header: domain.RatchetHeader{
			DHPublicKey:   pub,
			MessageNumber: n,
		},
		Box: domain.SealedBox{
			Nonce:      []byte("test-nonce"),
			Ciphertext: []byte("test-ciphertext"),
		},
		Timestamp: time.Now().Unix(),
	}
}

func TestRegisterAndFetchBundle(t *testing.T) {
	var stored domain.Registration

	r := mux.NewRouter()
	r.HandleFunc("/register", func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&stored); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/bundle/{username}/{device}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["username"] != string(stored.Bundle.Username) {
			http.NotFound(w, req)
			return
		}
		out := stored.Bundle
		if len(stored.OneTimePreKeys) > 0 {
			out.OneTime = &stored.OneTimePreKeys[0]
		}
		_ = json.NewEncoder(w).Encode(out)
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	defer srv.Close()

	c := relay.NewClient(srv.URL)
	ctx := context.Background()

	reg := domain.Registration{
		Bundle: domain.PreKeyBundle{
			Username:              "bob",
			DeviceID:              domain.DefaultDeviceID,
			IdentityKey:           domain.Ed25519Public{1},
			SignedPreKeyPub:       domain.X25519Public{2},
			SignedPreKeySignature: []byte("prekey signature"),
		},
		OneTimePreKeys: []domain.OneTimePreKey{{ID: "opk-1", Pub: domain.X25519Public{7}}},
	}
	require.NoError(t, c.Register(ctx, reg))
	require.Equal(t, reg, stored)

	got, err := c.FetchPreKeyBundle(ctx, "bob", domain.DefaultDeviceID)
	require.NoError(t, err)
	require.Equal(t, reg.Bundle.IdentityKey, got.IdentityKey)
	require.NotNil(t, got.OneTime)
	require.Equal(t, "opk-1", got.OneTime.ID)

	_, err = c.FetchPreKeyBundle(ctx, "nobody", domain.DefaultDeviceID)
	require.Error(t, err)
}

func TestEnvelopeQueueAndReceipts(t *testing.T) {
	var (
		queue    []domain.Envelope
		acked    relay.AckRequest
		ackCalls int
		nacked   relay.NackRequest
	)

	r := mux.NewRouter()
	r.HandleFunc("/envelopes", func(w http.ResponseWriter, req *http.Request) {
		var env domain.Envelope
		if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		queue = append(queue, env)
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/envelopes/{username}", func(w http.ResponseWriter, req *http.Request) {
		out := queue
		if limit, _ := strconv.Atoi(req.URL.Query().Get("limit")); limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		_ = json.NewEncoder(w).Encode(out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/envelopes/{username}/ack", func(w http.ResponseWriter, req *http.Request) {
		ackCalls++
		if err := json.NewDecoder(req.Body).Decode(&acked); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/envelopes/{username}/nack", func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&nacked); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	defer srv.Close()

	c := relay.NewClient(srv.URL)
	ctx := context.Background()

	first := testEnvelope("m-1", 0)
	require.NoError(t, c.SendEnvelope(ctx, first))
	require.NoError(t, c.SendEnvelope(ctx, testEnvelope("m-2", 1)))

	envs, err := c.FetchEnvelopes(ctx, "bob", 1)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.Equal(t, first, envs[0])

	envs, err = c.FetchEnvelopes(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 2)

	require.NoError(t, c.Acknowledge(ctx, "bob", []domain.MessageID{"m-1", "m-2"}))
	require.Equal(t, []domain.MessageID{"m-1", "m-2"}, acked.IDs)
	require.Equal(t, 1, ackCalls)

	// Nothing to acknowledge, nothing sent.
	require.NoError(t, c.Acknowledge(ctx, "bob", nil))
	require.Equal(t, 1, ackCalls)

	require.NoError(t, c.ReportFailure(ctx, "bob", "m-2", "authentication failed"))
	require.Equal(t, domain.MessageID("m-2"), nacked.ID)
	require.Equal(t, "authentication failed", nacked.Reason)
}

func TestStreamDeliversUntilCancelled(t *testing.T) {
	upgrader := websocket.Upgrader{}

	r := mux.NewRouter()
	r.HandleFunc("/stream/{username}", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := uint32(0); i < 2; i++ {
			if err := conn.WriteJSON(testEnvelope(fmt.Sprintf("m-%d", i), i)); err != nil {
				return
			}
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []domain.Envelope
	err := relay.NewClient(srv.URL).Stream(ctx, "bob", func(env domain.Envelope) {
		got = append(got, env)
		if len(got) == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 2)
	require.Equal(t, domain.MessageID("m-0"), got[0].ID)
	require.Equal(t, domain.MessageID("m-1"), got[1].ID)
}
