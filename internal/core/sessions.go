package core

// sessions.go holds the per-browser View State containers.
//
// Each browser is identified by a session id cookie. A session owns one
// State and a mutex; every intent for that session runs under the mutex, so
// updates are applied one at a time in arrival order, the way a single UI
// event loop would apply them. Sessions live in memory only and are evicted
// after an idle TTL.

import (
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for ids that were never issued or have
// been evicted.
var ErrSessionNotFound = errors.New("session not found")

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

type session struct {
	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

// Sessions is an in-memory store of View States keyed by session id.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]*session
}

// NewSessions creates a store that evicts sessions idle for longer than ttl.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*session),
	}
}

// Ensure returns id when it names a live session, otherwise a new session
// is created and its id returned with created set. A live session is
// marked as seen, so a sweep cannot evict it while its request runs.
func (s *Sessions) Ensure(id string) (sid string, created bool) {
	if id != "" {
		if sess, err := s.get(id); err == nil {
			sess.mu.Lock()
			sess.lastSeen = s.now()
			sess.mu.Unlock()
			return id, false
		}
	}

	sid = uuid.NewString()
	s.mu.Lock()
	s.items[sid] = &session{state: NewState(), lastSeen: s.now()}
	s.mu.Unlock()
	return sid, true
}

// Snapshot returns a copy of the session's state.
func (s *Sessions) Snapshot(id string) (State, error) {
	sess, err := s.get(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return sess.state.Clone(), nil
}

// Dispatch applies a to the session's state and returns a copy of the
// result.
func (s *Sessions) Dispatch(id string, a Action, products []catalog.Product) (State, error) {
	sess, err := s.get(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = Reduce(sess.state, a, products)
	sess.lastSeen = s.now()
	return sess.state.Clone(), nil
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.items {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Sessions) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
