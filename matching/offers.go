package matching

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrOfferNotFound signals an unknown offer id.
	ErrOfferNotFound = errors.New("matching: offer not found")
	// ErrOfferClosed signals an offer no longer pending.
	ErrOfferClosed = errors.New("matching: offer is no longer open")
	// ErrOfferExpired signals the offer's TTL elapsed before the response.
	ErrOfferExpired = errors.New("matching: offer expired")
)

// OfferStore keeps load offers in memory. Offers are short-lived; expiry is
// applied lazily on read rather than by a background reaper.
type OfferStore struct {
	mu     sync.RWMutex
	offers map[string]LoadOffer
	now    func() time.Time
}

// NewOfferStore returns an empty offer store.
func NewOfferStore() *OfferStore {
	return &OfferStore{
		offers: make(map[string]LoadOffer),
		now:    time.Now,
	}
}

// WithClock overrides the store clock; used by expiry tests.
func (s *OfferStore) WithClock(now func() time.Time) *OfferStore {
	s.now = now
	return s
}

// Save upserts an offer.
func (s *OfferStore) Save(_ context.Context, offer LoadOffer) error {
	s.mu.Lock()
	s.offers[offer.ID] = offer
	s.mu.Unlock()
	return nil
}

// Get returns an offer, flipping it to expired when its TTL has elapsed.
func (s *OfferStore) Get(_ context.Context, id string) (LoadOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	if !ok {
		return LoadOffer{}, ErrOfferNotFound
	}
	if offer.Status == OfferPending && offer.Expired(s.now()) {
		offer.Status = OfferExpired
		s.offers[id] = offer
	}
	return offer, nil
}

// ListByShipment returns the shipment's offers ordered by score descending.
func (s *OfferStore) ListByShipment(_ context.Context, shipmentID string) ([]LoadOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []LoadOffer
	for id, offer := range s.offers {
		if offer.ShipmentID != shipmentID {
			continue
		}
		if offer.Status == OfferPending && offer.Expired(now) {
			offer.Status = OfferExpired
			s.offers[id] = offer
		}
		out = append(out, offer)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

// ListOpenForTransporter returns the transporter's pending, unexpired offers.
func (s *OfferStore) ListOpenForTransporter(_ context.Context, transporterID string) ([]LoadOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []LoadOffer
	for id, offer := range s.offers {
		if offer.TransporterID != transporterID {
			continue
		}
		if offer.Status == OfferPending && offer.Expired(now) {
			offer.Status = OfferExpired
			s.offers[id] = offer
			continue
		}
		if offer.Status == OfferPending {
			out = append(out, offer)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}
