package booking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore manages wizard sessions by id.
type SessionStore struct {
	sessions map[string]*Wizard
	mu       sync.RWMutex
	timeout  time.Duration
	now      func() time.Time
}

// NewSessionStore creates a new session store.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Wizard),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Create starts a new session and returns its id.
func (ss *SessionStore) Create() (string, *Wizard) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	id := uuid.NewString()
	w := newWizard(ss.now)
	ss.sessions[id] = w
	return id, w
}

// Get returns a live session. Expired sessions are dropped.
func (ss *SessionStore) Get(id string) (*Wizard, bool) {
	ss.mu.RLock()
	w, ok := ss.sessions[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if w.IsExpired(ss.timeout) {
		ss.dropExpired(id, w)
		return nil, false
	}
	return w, true
}

// dropExpired deletes id only while it still maps to the expired wizard w, so a
// session recreated under the same id in between survives.
func (ss *SessionStore) dropExpired(id string, w *Wizard) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if cur, ok := ss.sessions[id]; ok && cur == w && w.IsExpired(ss.timeout) {
		delete(ss.sessions, id)
	}
}

// GetOrCreate returns existing or creates new session under id.
func (ss *SessionStore) GetOrCreate(id string) *Wizard {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	w, ok := ss.sessions[id]
	if ok && !w.IsExpired(ss.timeout) {
		return w
	}

	w = newWizard(ss.now)
	ss.sessions[id] = w
	return w
}

// Delete removes a session.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Len returns the number of stored sessions.
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// Cleanup removes expired sessions.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, w := range ss.sessions {
		if w.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
