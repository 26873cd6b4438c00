package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the explicit caller context handed to every service call.
// It is opened from a verified identity token and closed on logout or
// disconnect; closing it releases every live feed registered on it.
type Session struct {
	ID       string
	UserID   string
	OpenedAt time.Time

	mu     sync.Mutex
	feeds  map[canceler]struct{}
	closed bool
}

type canceler interface {
	Cancel()
}

// NewSession builds a session for an already authenticated user.
func NewSession(userID string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		OpenedAt: time.Now().UTC(),
		feeds:    make(map[canceler]struct{}),
	}
}

// track registers c so that Close cancels it. Returns false if the session is
// already closed; the caller then owns cancelling c.
func (s *Session) track(c canceler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.feeds[c] = struct{}{}
	return true
}

func (s *Session) untrack(c canceler) {
	s.mu.Lock()
	delete(s.feeds, c)
	s.mu.Unlock()
}

// Close cancels all outstanding feeds. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	feeds := make([]canceler, 0, len(s.feeds))
	for c := range s.feeds {
		feeds = append(feeds, c)
	}
	s.feeds = nil
	s.mu.Unlock()

	for _, c := range feeds {
		c.Cancel()
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ActiveFeeds is the number of live feeds still held by the session.
func (s *Session) ActiveFeeds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}

// requireSession resolves the acting user or fails with ErrUnauthenticated.
func requireSession(op string, sess *Session) (string, error) {
	if sess == nil || sess.UserID == "" || sess.Closed() {
		return "", fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	return sess.UserID, nil
}

// SessionManager opens sessions from identity tokens.
type SessionManager struct {
	auth *Authenticator
}

func NewSessionManager(auth *Authenticator) *SessionManager {
	return &SessionManager{auth: auth}
}

// Open verifies token and starts a session for its subject.
func (m *SessionManager) Open(ctx context.Context, token string) (*Session, error) {
	userID, err := m.auth.Verify(token)
	if err != nil {
		return nil, err
	}
	sess := NewSession(userID)
	log.Printf("🔑 Session %s opened for %s", sess.ID, userID)
	return sess, nil
}

// Close ends sess and releases its feeds.
func (m *SessionManager) Close(sess *Session) {
	if sess == nil {
		return
	}
	sess.Close()
	log.Printf("🔒 Session %s closed for %s", sess.ID, sess.UserID)
}
