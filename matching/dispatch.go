package matching

import (
	"context"
	"fmt"

	"mzigo/shipment"
	"mzigo/shipment/lifecycle"
)

// Dispatcher fans load offers out to the best-scoring transporters and
// settles the shipment's status as offers are answered or expire.
type Dispatcher struct {
	engine    *Engine
	lifecycle *lifecycle.Service
}

// NewDispatcher builds a dispatcher over the matching engine and the
// shipment lifecycle service.
func NewDispatcher(engine *Engine, lc *lifecycle.Service) *Dispatcher {
	return &Dispatcher{engine: engine, lifecycle: lc}
}

// AutoDispatchShipment scores the candidate pool, creates pending load
// offers for the top candidates with the configured TTL, and moves the
// shipment to matched. It fails when no eligible transporter exists.
func (d *Dispatcher) AutoDispatchShipment(ctx context.Context, sh shipment.Shipment) ([]LoadOffer, error) {
	if sh.Status != shipment.StatusPosted {
		return nil, fmt.Errorf("matching: cannot dispatch shipment in status %s", sh.Status)
	}

	candidates, err := d.engine.FindMatches(ctx, sh, d.engine.cfg.DispatchLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("matching: no eligible transporter for shipment %s", sh.ID)
	}

	// The transition runs first: if the shipment cannot legally move to
	// matched (unreviewed high-value load, wrong current status), no offer
	// ever reaches a transporter.
	if _, err := d.lifecycle.Transition(ctx, sh.ID, shipment.StatusMatched); err != nil {
		return nil, err
	}

	now := d.engine.now()
	offers := make([]LoadOffer, 0, len(candidates))
	for _, c := range candidates {
		breakdown := d.engine.pricer.Quote(sh.Origin, sh.Destination, sh.WeightKg, sh.RequiredVehicleType, sh.CargoType, c.Result.IsBackhaul)
		offer := LoadOffer{
			ID:            d.engine.idGen(),
			ShipmentID:    sh.ID,
			TransporterID: c.TransporterID,
			MatchScore:    c.Result.Score,
			IsBackhaul:    c.Result.IsBackhaul,
			Pricing:       breakdown,
			Status:        OfferPending,
			CreatedAt:     now,
			ExpiresAt:     now.Add(d.engine.cfg.LoadOfferTTL),
		}
		if err := d.engine.offers.Save(ctx, offer); err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// AcceptOffer marks the offer accepted and advances the shipment to
// accepted, recording the accepting transporter on the shipment. An expired
// offer is rejected and recorded as such.
func (d *Dispatcher) AcceptOffer(ctx context.Context, offerID string) (LoadOffer, error) {
	offer, err := d.engine.offers.Get(ctx, offerID)
	if err != nil {
		return LoadOffer{}, err
	}
	switch offer.Status {
	case OfferPending:
	case OfferExpired:
		return LoadOffer{}, ErrOfferExpired
	default:
		return LoadOffer{}, ErrOfferClosed
	}

	if _, err := d.lifecycle.Accept(ctx, offer.ShipmentID, offer.TransporterID); err != nil {
		return LoadOffer{}, err
	}
	offer.Status = OfferAccepted
	if err := d.engine.offers.Save(ctx, offer); err != nil {
		return LoadOffer{}, err
	}
	return offer, nil
}

// DeclineOffer marks the offer declined; the shipment stays matched while
// other offers remain open.
func (d *Dispatcher) DeclineOffer(ctx context.Context, offerID string) (LoadOffer, error) {
	offer, err := d.engine.offers.Get(ctx, offerID)
	if err != nil {
		return LoadOffer{}, err
	}
	if offer.Status != OfferPending {
		return LoadOffer{}, ErrOfferClosed
	}
	offer.Status = OfferDeclined
	if err := d.engine.offers.Save(ctx, offer); err != nil {
		return LoadOffer{}, err
	}
	return offer, nil
}

// SettleExpired cancels a matched shipment once every offer is closed or
// expired without acceptance. An expired match is treated as a cancellation;
// there is no standalone expired shipment status.
func (d *Dispatcher) SettleExpired(ctx context.Context, shipmentID string) (bool, error) {
	offers, err := d.engine.offers.ListByShipment(ctx, shipmentID)
	if err != nil {
		return false, err
	}
	if len(offers) == 0 {
		return false, nil
	}
	for _, offer := range offers {
		switch offer.Status {
		case OfferPending, OfferAccepted:
			return false, nil
		}
	}
	if _, err := d.lifecycle.Transition(ctx, shipmentID, shipment.StatusCancelled); err != nil {
		return false, err
	}
	return true, nil
}
