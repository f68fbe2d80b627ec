// Package session owns persisted conversation state.
//
// A Manager serializes all work on a conversation through a per-conversation
// lock, validates integrity on every load, and drops state that fails
// validation so the next message forces a fresh handshake. Mutations go
// through Update, which persists whatever the closure returns even when the
// operation itself failed, keeping failure counters durable.
package session
