package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hushwire/internal/domain"
)

// registration is one user's published material: the static bundle plus the
// one-time prekeys handed out one per fetch.
type registration struct {
	bundle domain.PreKeyBundle
	opks   []domain.OneTimePreKey
}

// server is the in-memory relay: a prekey directory and a per-user mailbox,
// with a websocket fan-out for connected recipients. Everything is lost on
// process exit.
type server struct {
	log      *zap.Logger
	hub      *hub
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	regs   map[string]*registration
	queues map[domain.Username][]domain.Envelope
}

func newServer(log *zap.Logger) *server {
	s := &server{
		log:    log,
		hub:    newHub(),
		regs:   make(map[string]*registration),
		queues: make(map[domain.Username][]domain.Envelope),
	}
	go s.hub.Run()
	return s
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/bundle/{username}/{device}", s.handleBundle).Methods(http.MethodGet)
	r.HandleFunc("/envelopes", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/envelopes/{username}", s.handleFetch).Methods(http.MethodGet)
	r.HandleFunc("/envelopes/{username}/ack", s.handleAck).Methods(http.MethodPost)
	r.HandleFunc("/envelopes/{username}/nack", s.handleNack).Methods(http.MethodPost)
	r.HandleFunc("/stream/{username}", s.handleStream).Methods(http.MethodGet)
	return r
}

func regKey(user domain.Username, device domain.DeviceID) string {
	return string(user) + "/" + string(device)
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if reg.Bundle.Username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.regs[regKey(reg.Bundle.Username, reg.Bundle.DeviceID)] = &registration{
		bundle: reg.Bundle,
		opks:   append([]domain.OneTimePreKey(nil), reg.OneTimePreKeys...),
	}
	s.mu.Unlock()

	s.log.Info("registered bundle",
		zap.String("user", string(reg.Bundle.Username)),
		zap.String("device", string(reg.Bundle.DeviceID)),
		zap.Int("one_time_prekeys", len(reg.OneTimePreKeys)))
	w.WriteHeader(http.StatusNoContent)
}

// handleBundle serves the bundle with one one-time prekey attached and
// consumed. Once the batch runs dry the bundle is served without one; the
// handshake degrades rather than fails.
func (s *server) handleBundle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := domain.Username(vars["username"])
	device := domain.DeviceID(vars["device"])

	s.mu.Lock()
	reg, ok := s.regs[regKey(user, device)]
	var out domain.PreKeyBundle
	if ok {
		out = reg.bundle
		if len(reg.opks) > 0 {
			opk := reg.opks[0]
			reg.opks = reg.opks[1:]
			out.OneTime = &opk
		}
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unknown user or device", http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (s *server) handleSend(w http.ResponseWriter, r *http.Request) {
	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if env.ID == "" || env.To == "" {
		http.Error(w, "missing id or recipient", http.StatusBadRequest)
		return
	}
	if env.Timestamp == 0 {
		env.Timestamp = time.Now().Unix()
	}

	s.mu.Lock()
	s.queues[env.To] = append(s.queues[env.To], env)
	s.mu.Unlock()

	s.hub.notify <- notice{user: env.To, env: env}

	s.log.Debug("queued envelope",
		zap.String("id", string(env.ID)),
		zap.String("to", string(env.To)))
	w.WriteHeader(http.StatusNoContent)
}

// handleFetch returns queued envelopes without removing them; removal
// happens via ack or nack.
func (s *server) handleFetch(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(mux.Vars(r)["username"])
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.RLock()
	q := s.queues[user]
	if limit > 0 && limit < len(q) {
		q = q[:limit]
	}
	out := append([]domain.Envelope(nil), q...)
	s.mu.RUnlock()

	writeJSON(w, out)
}

func (s *server) handleAck(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(mux.Vars(r)["username"])
	var req struct {
		IDs []domain.MessageID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.drop(user, req.IDs...)
	w.WriteHeader(http.StatusNoContent)
}

// handleNack drops the envelope like an ack; the reason is recorded in the
// log only. Keeping it queued would jam the mailbox on a poison message.
func (s *server) handleNack(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(mux.Vars(r)["username"])
	var req struct {
		ID     domain.MessageID `json:"id"`
		Reason string           `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.log.Warn("envelope rejected by recipient",
		zap.String("user", string(user)),
		zap.String("id", string(req.ID)),
		zap.String("reason", req.Reason))
	s.drop(user, req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) drop(user domain.Username, ids ...domain.MessageID) {
	drop := make(map[domain.MessageID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	q := s.queues[user]
	kept := q[:0]
	for _, env := range q {
		if !drop[env.ID] {
			kept = append(kept, env)
		}
	}
	s.queues[user] = kept
	s.mu.Unlock()
}

func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	user := domain.Username(mux.Vars(r)["username"])
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{user: user, send: make(chan domain.Envelope, 16)}
	s.hub.register <- c
	s.log.Info("stream connected", zap.String("user", string(user)))

	// Reader exists only to notice the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.unregister <- c
				return
			}
		}
	}()

	for env := range c.send {
		if err := conn.WriteJSON(env); err != nil {
			s.hub.unregister <- c
			break
		}
	}
	conn.Close()
	s.log.Info("stream closed", zap.String("user", string(user)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
