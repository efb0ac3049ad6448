package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minios-linux/locode/logger"
)

// Session is one browser's pair of forms. The two forms share no state.
type Session struct {
	ID           string
	CodeToLocale *CodeToLocale
	LocaleToCode *LocaleToCode

	lastSeen time.Time
}

// Sessions is an in-memory session store. Nothing survives a restart.
type Sessions struct {
	deps Deps
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	items map[string]*Session
}

// NewSessions returns an empty store whose sessions expire after ttl
// without use.
func NewSessions(deps Deps, ttl time.Duration) *Sessions {
	return &Sessions{
		deps:  deps,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*Session),
	}
}

// Get returns the live session with id and marks it used.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.items, id)
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// Create starts a new session with default forms.
func (s *Sessions) Create() *Session {
	sess := &Session{
		ID:           uuid.NewString(),
		CodeToLocale: NewCodeToLocale(s.deps),
		LocaleToCode: NewLocaleToCode(s.deps),
	}

	s.mu.Lock()
	sess.lastSeen = s.now()
	s.items[sess.ID] = sess
	s.mu.Unlock()

	logger.Debug("session created", zap.String("session", sess.ID))
	return sess
}

// GetOrCreate returns the session with id, or a new one when id is unknown
// or expired. created reports which.
func (s *Sessions) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Len returns the number of stored sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sessions) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

// Sweep removes expired sessions and returns how many were removed. A
// request still pending on a removed session completes against the
// detached forms and is never shown.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.items {
		if s.expired(sess) {
			delete(s.items, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("sessions expired", zap.Int("removed", removed), zap.Int("remaining", len(s.items)))
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("stopping session janitor")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
