package main

import (
	"hushwire/internal/domain"
)

// client is one websocket subscriber. Envelopes are pushed through send;
// the stream handler owns the connection and drains the channel.
type client struct {
	user domain.Username
	send chan domain.Envelope
}

type notice struct {
	user domain.Username
	env  domain.Envelope
}

// hub fans incoming envelopes out to connected recipients. All state is
// confined to the Run goroutine; handlers talk to it through channels only.
type hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	notify     chan notice
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		notify:     make(chan notice),
	}
}

func (h *hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case n := <-h.notify:
			for c := range h.clients {
				if c.user != n.user {
					continue
				}
				select {
				case c.send <- n.env:
				default:
					// Slow consumer; drop it. The envelope stays queued, so
					// nothing is lost when the client reconnects or polls.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}
