package session

import (
	"sync"

	"hushwire/internal/domain"
)

// lockTable hands out one mutex per conversation so that work on the same
// conversation serializes while different conversations proceed
// independently. Entries are never removed; the set of live conversations
// stays small.
type lockTable struct {
	mu sync.Mutex
	m  map[domain.ConversationID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{m: make(map[domain.ConversationID]*sync.Mutex)}
}

func (t *lockTable) get(id domain.ConversationID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.m[id]
	if !ok {
		l = &sync.Mutex{}
		t.m[id] = l
	}
	return l
}
