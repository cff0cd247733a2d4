package worker

import (
	"sync"

	"github.com/google/uuid"
)

// SessionLocks serializes work on a game session. The turn handler
// holds the lock for the duration of a turn (rejecting double
// submissions), and the director runner holds it while applying a
// deferred pass, so the two never interleave on one state.
type SessionLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{held: make(map[uuid.UUID]bool)}
}

// TryLock acquires the session lock without blocking. Returns false if
// another operation holds it.
func (l *SessionLocks) TryLock(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[id] {
		return false
	}
	l.held[id] = true
	return true
}

func (l *SessionLocks) Unlock(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}
