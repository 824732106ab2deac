package transporter

import (
	"context"
	"fmt"
	"time"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
)

// Store abstracts profile persistence for the service.
type Store interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	Save(ctx context.Context, p Profile) error
	ListActive(ctx context.Context) ([]Profile, error)
}

// Service exposes transporter lifecycle operations.
type Service struct {
	store    Store
	enforcer *invariant.Engine
	cfg      config.Config
	now      func() time.Time
}

// NewService builds a Service over the given store and enforcement engine.
func NewService(store Store, enforcer *invariant.Engine, cfg config.Config) *Service {
	return &Service{
		store:    store,
		enforcer: enforcer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetByID returns the profile for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.store.GetByID(ctx, id)
}

// ListActive returns every active transporter.
func (s *Service) ListActive(ctx context.Context) ([]Profile, error) {
	return s.store.ListActive(ctx)
}

// Register validates and stores a new profile. Phone and plate formats are
// WARN-level rules: a malformed value logs but does not block onboarding.
func (s *Service) Register(ctx context.Context, p Profile) (Profile, error) {
	if p.ID == "" {
		return Profile{}, ErrMissingID
	}
	if p.VehicleCapacityKg <= 0 {
		return Profile{}, fmt.Errorf("transporter: vehicle capacity must be positive")
	}

	payload := registrationContext{
		PhoneContext: rules.PhoneContext{Phone: p.Phone},
		PlateContext: rules.PlateContext{Plate: p.PlateNumber},
	}
	p.IsActive = true
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	err := s.enforcer.Execute(ctx, []string{rules.PhoneFormat, rules.PlateFormat}, payload, func(ctx context.Context) error {
		return s.store.Save(ctx, p)
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SetAvailability flips the availability flag.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (Profile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.IsAvailable = available
	p.UpdatedAt = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Deactivate retires a profile. Profiles are never deleted.
func (s *Service) Deactivate(ctx context.Context, id string) (Profile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.IsActive = false
	p.IsAvailable = false
	p.UpdatedAt = s.now()
	if err := s.store.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// RecordNoShow appends a no-show and suspends the account once the rolling
// window count reaches the mandated threshold. The suspension write and the
// no-show append land together.
func (s *Service) RecordNoShow(ctx context.Context, id string) (Profile, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	now := s.now()
	p.NoShows = append(p.NoShows, now)
	cutoff := now.Add(-s.cfg.NoShowWindow)
	windowCount := p.NoShowsSince(cutoff)

	payload := rules.NoShowContext{WindowCount: windowCount}
	err = s.enforcer.Execute(ctx, []string{rules.NoShowSuspension}, payload, func(ctx context.Context) error {
		p.UpdatedAt = now
		return s.store.Save(ctx, p)
	})
	if invariant.ViolatedRule(err) == rules.NoShowSuspension {
		// Mandated suspension: record the no-show and retire the account.
		p.IsActive = false
		p.IsAvailable = false
		p.UpdatedAt = now
		if saveErr := s.store.Save(ctx, p); saveErr != nil {
			return Profile{}, saveErr
		}
		return p, err
	}
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// registrationContext satisfies both format rules in one payload.
type registrationContext struct {
	rules.PhoneContext
	rules.PlateContext
}
