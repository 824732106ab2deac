package wallet

import (
	"context"
	"fmt"
)

// DisputeOutcome decides where disputed funds go.
type DisputeOutcome string

const (
	// OutcomeRelease sides with the transporter: funds release as normal.
	OutcomeRelease DisputeOutcome = "release"
	// OutcomeRefund sides with the shipper: the gross returns to them.
	OutcomeRefund DisputeOutcome = "refund"
)

// OpenDispute parks a held escrow in disputed status. No money moves; the
// hold simply stops being releasable until resolution.
func (e *Engine) OpenDispute(ctx context.Context, shipmentID, reason string) (EscrowHold, error) {
	hold, err := e.heldEscrow(ctx, shipmentID)
	if err != nil {
		return EscrowHold{}, err
	}
	hold.Status = EscrowDisputed
	hold.ReleaseCondition = "dispute_resolution"
	if err := e.store.SaveEscrow(ctx, hold); err != nil {
		return EscrowHold{}, err
	}
	return hold, nil
}

// ResolveDispute settles a disputed escrow. Resolution is an arbiter action
// and bypasses the delivery-confirmation gate: the support workflow already
// adjudicated the delivery question, so only the money movement remains.
func (e *Engine) ResolveDispute(ctx context.Context, shipmentID string, outcome DisputeOutcome, reason string) (Transaction, error) {
	hold, err := e.store.EscrowByShipment(ctx, shipmentID)
	if err != nil {
		return Transaction{}, err
	}
	if hold.Status != EscrowDisputed {
		return Transaction{}, ErrEscrowNotDisputed
	}

	switch outcome {
	case OutcomeRefund:
		return e.applyRefund(ctx, hold, reason)
	case OutcomeRelease:
		unlock := e.lockUsers(hold.ShipperID, hold.TransporterID, PlatformAccountID)
		defer unlock()

		snap, err := e.store.Snapshot(ctx, hold.ShipmentID, hold.ShipperID, hold.TransporterID, PlatformAccountID)
		if err != nil {
			return Transaction{}, err
		}
		var payout Transaction
		if err := e.applyRelease(ctx, hold, reason, &payout); err != nil {
			if restoreErr := e.store.Restore(ctx, snap); restoreErr != nil {
				return Transaction{}, fmt.Errorf("wallet: restore after failed resolution: %w (original: %v)", restoreErr, err)
			}
			return Transaction{}, err
		}
		return payout, nil
	default:
		return Transaction{}, fmt.Errorf("wallet: unknown dispute outcome %q", outcome)
	}
}
