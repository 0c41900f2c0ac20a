// Package session holds ephemeral research state between pipeline calls.
// Sessions carry the uploaded research material and intermediate framework
// text that later stages look up; they expire after a TTL rather than
// persisting with the project.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known value keys.
const (
	KeyCompanyName    = "company_name"
	KeyFrameworkUpper = "framework_upper"
	KeyFrameworkLower = "framework_lower"
	KeyResearch       = "research_text"
	KeyResearchID     = "research_id"
)

// Session is one research session's accumulated state.
type Session struct {
	ID        string            `json:"id"`
	Values    map[string]string `json:"values"`
	CreatedAt time.Time         `json:"created_at"`

	lastAccess time.Time
}

// clone returns a copy safe to hand out after the store lock is released.
func (s *Session) clone() *Session {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return &Session{ID: s.ID, Values: values, CreatedAt: s.CreatedAt}
}

// Store is a TTL-evicting in-memory session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a session store and starts its eviction sweep. Call Stop
// when done.
func NewStore(ttl, sweepInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

// Stop halts the eviction sweep.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// New creates a fresh session and returns it.
func (s *Store) New() *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		Values:     make(map[string]string),
		CreatedAt:  now,
		lastAccess: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.clone()
}

// Get returns a session by ID, or false if missing or expired. Access
// refreshes the TTL.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(sess.lastAccess) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastAccess = time.Now()
	return sess.clone(), true
}

// Set stores a value on a session. Returns false if the session is missing
// or expired.
func (s *Store) Set(id, key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	if time.Since(sess.lastAccess) > s.ttl {
		delete(s.sessions, id)
		return false
	}
	sess.Values[key] = value
	sess.lastAccess = time.Now()
	return true
}

// FindByResearchID returns the session holding the given research upload id.
// Later stages identify research material by this id rather than the session
// id itself.
func (s *Store) FindByResearchID(researchID string) (*Session, bool) {
	if researchID == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.Values[KeyResearchID] == researchID {
			if time.Since(sess.lastAccess) > s.ttl {
				continue
			}
			sess.lastAccess = time.Now()
			return sess.clone(), true
		}
	}
	return nil, false
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep evicts expired sessions on an interval until Stop is called.
func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
