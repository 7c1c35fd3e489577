package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the identity bound to one login token
type Session struct {
	Token     string
	UserID    int
	Username  string
	Role      string
	ExpiresAt time.Time
}

// SessionStore maps opaque tokens to logged-in users. Sessions live in
// process memory only; a restart invalidates all of them. Expired entries
// are evicted lazily on read, there is no background sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a session store with the given time-to-live
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session and returns its token
func (s *SessionStore) Create(userID int, username, role string) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = Session{
		Token:     token,
		UserID:    userID,
		Username:  username,
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}

	return token
}

// Get returns the session for token if it exists and has not expired.
// An expired session is deleted and reported absent.
func (s *SessionStore) Get(token string) (Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, false
	}

	if s.now().After(session.ExpiresAt) || s.now().Equal(session.ExpiresAt) {
		s.Delete(token)
		return Session{}, false
	}

	return session, true
}

// Delete removes the session for token. Deleting an unknown token is a no-op.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
