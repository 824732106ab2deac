// Package lifecycle moves shipments through their state machine under the
// enforcement engine. It lives apart from the shipment domain package so the
// rule catalogue can depend on the domain tables without a cycle.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mzigo/invariant"
	"mzigo/rules"
	"mzigo/shipment"
)

// Store abstracts shipment persistence for the service.
type Store interface {
	Get(ctx context.Context, id string) (shipment.Shipment, error)
	Save(ctx context.Context, sh shipment.Shipment) error
	ListByStatus(ctx context.Context, status shipment.Status) ([]shipment.Shipment, error)
}

// Service owns shipment lifecycle writes. Every status change goes through
// the enforcement engine so the transition table is enforced atomically with
// the write.
type Service struct {
	store    Store
	enforcer *invariant.Engine
	idGen    func() string
	now      func() time.Time
}

// NewService builds a lifecycle service.
func NewService(store Store, enforcer *invariant.Engine) *Service {
	return &Service{
		store:    store,
		enforcer: enforcer,
		idGen:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

// WithIDGenerator overrides id generation; used by tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PostParams enumerates the fields required to post a new shipment.
type PostParams struct {
	ShipperID           string
	Origin              shipment.Location
	Destination         shipment.Location
	CargoType           shipment.CargoType
	WeightKg            float64
	RequiredVehicleType shipment.VehicleType
	PriceMWK            int64
	PaymentMethod       shipment.PaymentMethod
	CashVerified        bool
	SeasonalCategory    string
}

// Post creates a shipment in posted status after checking the cargo can
// legally move on the requested vehicle type at the requested weight.
func (s *Service) Post(ctx context.Context, params PostParams) (shipment.Shipment, error) {
	if params.ShipperID == "" {
		return shipment.Shipment{}, fmt.Errorf("lifecycle: missing shipper id")
	}
	if params.WeightKg <= 0 {
		return shipment.Shipment{}, fmt.Errorf("lifecycle: weight must be positive")
	}
	if params.PriceMWK <= 0 {
		return shipment.Shipment{}, fmt.Errorf("lifecycle: price must be positive")
	}

	now := s.now()
	sh := shipment.Shipment{
		ID:                  s.idGen(),
		ShipperID:           params.ShipperID,
		Origin:              params.Origin,
		Destination:         params.Destination,
		CargoType:           params.CargoType,
		WeightKg:            params.WeightKg,
		RequiredVehicleType: params.RequiredVehicleType,
		PriceMWK:            params.PriceMWK,
		PaymentMethod:       params.PaymentMethod,
		CashVerified:        params.CashVerified,
		Status:              shipment.StatusPosted,
		SeasonalCategory:    params.SeasonalCategory,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	payload := postContext{
		CargoContext: rules.CargoContext{Cargo: sh.CargoType, Vehicle: sh.RequiredVehicleType},
		WeightContext: rules.WeightContext{
			WeightKg:          sh.WeightKg,
			VehicleCapacityKg: shipment.ClassRatingKg(sh.RequiredVehicleType),
		},
	}
	err := s.enforcer.Execute(ctx, []string{rules.CargoCompatibility, rules.ShipmentWeight}, payload, func(ctx context.Context) error {
		return s.store.Save(ctx, sh)
	})
	if err != nil {
		return shipment.Shipment{}, err
	}
	return sh, nil
}

// Transition moves a shipment to the next status. High-value shipments must
// be reviewed before they can be matched; that rule rides the same chain.
func (s *Service) Transition(ctx context.Context, id string, next shipment.Status) (shipment.Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return shipment.Shipment{}, err
	}

	payload := transitionContext{
		TransitionContext: rules.TransitionContext{From: sh.Status, To: next},
		ReviewContext: rules.ReviewContext{
			PriceMWK:   sh.PriceMWK,
			IsReviewed: sh.IsReviewed,
			NextStatus: next,
		},
	}
	err = s.enforcer.Execute(ctx, []string{rules.ShipmentTransition, rules.HighValueReview}, payload, func(ctx context.Context) error {
		sh.Status = next
		sh.UpdatedAt = s.now()
		return s.store.Save(ctx, sh)
	})
	if err != nil {
		return shipment.Shipment{}, err
	}
	return sh, nil
}

// Accept moves a matched shipment to accepted and records which transporter
// took it. The transition rides the same rule chain as Transition so the
// high-value review gate and the transition table both apply.
func (s *Service) Accept(ctx context.Context, id, transporterID string) (shipment.Shipment, error) {
	if transporterID == "" {
		return shipment.Shipment{}, fmt.Errorf("lifecycle: missing transporter id")
	}
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return shipment.Shipment{}, err
	}

	payload := transitionContext{
		TransitionContext: rules.TransitionContext{From: sh.Status, To: shipment.StatusAccepted},
		ReviewContext: rules.ReviewContext{
			PriceMWK:   sh.PriceMWK,
			IsReviewed: sh.IsReviewed,
			NextStatus: shipment.StatusAccepted,
		},
	}
	err = s.enforcer.Execute(ctx, []string{rules.ShipmentTransition, rules.HighValueReview}, payload, func(ctx context.Context) error {
		sh.Status = shipment.StatusAccepted
		sh.TransporterID = transporterID
		sh.UpdatedAt = s.now()
		return s.store.Save(ctx, sh)
	})
	if err != nil {
		return shipment.Shipment{}, err
	}
	return sh, nil
}

// MarkReviewed flags a high-value shipment as manually reviewed.
func (s *Service) MarkReviewed(ctx context.Context, id string) (shipment.Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return shipment.Shipment{}, err
	}
	sh.IsReviewed = true
	sh.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sh); err != nil {
		return shipment.Shipment{}, err
	}
	return sh, nil
}

// ConfirmDelivery records the shipper's explicit delivery confirmation,
// which the escrow release gate requires alongside delivered status.
func (s *Service) ConfirmDelivery(ctx context.Context, id string) (shipment.Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return shipment.Shipment{}, err
	}
	if sh.Status != shipment.StatusDelivered {
		return shipment.Shipment{}, fmt.Errorf("lifecycle: cannot confirm delivery in status %s", sh.Status)
	}
	sh.ShipperConfirmed = true
	sh.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sh); err != nil {
		return shipment.Shipment{}, err
	}
	return sh, nil
}

// Cancel moves the shipment to cancelled where the state machine allows it.
func (s *Service) Cancel(ctx context.Context, id string) (shipment.Shipment, error) {
	return s.Transition(ctx, id, shipment.StatusCancelled)
}

type postContext struct {
	rules.CargoContext
	rules.WeightContext
}

type transitionContext struct {
	rules.TransitionContext
	rules.ReviewContext
}
