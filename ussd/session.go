// Package ussd tracks feature-phone menu sessions. Sessions carry explicit
// expiry and are the only way low-end devices post shipments, so the TTL
// floor is enforced like any other platform rule.
package ussd

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
)

var (
	// ErrSessionNotFound signals an unknown or pruned session.
	ErrSessionNotFound = errors.New("ussd: session not found")
	// ErrSessionExpired signals input arriving after the session TTL.
	ErrSessionExpired = errors.New("ussd: session expired")
)

// Session is one USSD dialogue.
type Session struct {
	ID        string
	Phone     string
	Menu      string
	Inputs    []string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service creates and advances sessions.
type Service struct {
	enforcer *invariant.Engine
	cfg      config.Config
	idGen    func() string
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewService builds a session service.
func NewService(enforcer *invariant.Engine, cfg config.Config) *Service {
	return &Service{
		enforcer: enforcer,
		cfg:      cfg,
		idGen:    func() string { return uuid.NewString() },
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start opens a session with the requested TTL. TTLs under the platform
// minimum are rejected by the session rule; the phone format rule rides the
// same chain at warn level.
func (s *Service) Start(ctx context.Context, phone string, ttl time.Duration) (Session, error) {
	now := s.now()
	session := Session{
		ID:        s.idGen(),
		Phone:     phone,
		Menu:      "main",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	payload := startContext{
		SessionContext: rules.SessionContext{CreatedAt: session.CreatedAt, ExpiresAt: session.ExpiresAt},
		PhoneContext:   rules.PhoneContext{Phone: phone},
	}
	err := s.enforcer.Execute(ctx, []string{rules.SessionTTL, rules.PhoneFormat}, payload, func(context.Context) error {
		s.mu.Lock()
		s.sessions[session.ID] = session
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// Advance appends an input to a live session and moves its menu pointer.
func (s *Service) Advance(ctx context.Context, id, input, nextMenu string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, ErrSessionExpired
	}
	session.Inputs = append(session.Inputs, input)
	if nextMenu != "" {
		session.Menu = nextMenu
	}
	s.sessions[id] = session
	return session, nil
}

// Get returns a live session, pruning it when expired.
func (s *Service) Get(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// End closes a session explicitly.
func (s *Service) End(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

type startContext struct {
	rules.SessionContext
	rules.PhoneContext
}
