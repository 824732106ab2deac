package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"mzigo/invariant"
	"mzigo/shipment"
	"mzigo/shipment/lifecycle"
	"mzigo/wallet"
)

// Env bundles the engines the actors drive. Everything runs against the
// in-memory stores so the harness needs no external services.
type Env struct {
	Wallets   *wallet.Engine
	Shipments *lifecycle.Service
}

// Depositor keeps topping up a shipper's wallet with random amounts.
func Depositor(ctx context.Context, env *Env, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		amount := int64(50000 + rand.Intn(200000))
		if _, err := env.Wallets.Deposit(ctx, userID, amount); err != nil {
			return fmt.Errorf("depositor: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Shipper runs the full happy path over and over: post a shipment, lock the
// escrow, walk the status machine to delivered, confirm, and release. A
// solvency violation is expected under contention with the withdrawer and is
// not an error.
func Shipper(ctx context.Context, env *Env, shipperID, transporterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		price := int64(30000 + rand.Intn(170000))
		sh, err := env.Shipments.Post(ctx, lifecycle.PostParams{
			ShipperID:           shipperID,
			Origin:              shipment.Location{City: "Lilongwe"},
			Destination:         shipment.Location{City: "Blantyre"},
			CargoType:           shipment.CargoMaize,
			WeightKg:            float64(1000 + rand.Intn(8000)),
			RequiredVehicleType: shipment.VehicleMediumTruck,
			PriceMWK:            price,
			PaymentMethod:       shipment.PaymentMobileMoney,
		})
		if err != nil {
			return fmt.Errorf("shipper post: %w", err)
		}

		_, err = env.Wallets.CreateEscrowHold(ctx, wallet.CreateEscrowParams{
			ShipmentID:    sh.ID,
			ShipperID:     shipperID,
			TransporterID: transporterID,
			GrossAmount:   price,
			VehicleType:   sh.RequiredVehicleType,
			PaymentMethod: sh.PaymentMethod,
		})
		if err != nil {
			var violation *invariant.ViolationError
			if errors.As(err, &violation) {
				// broke; wait for the depositor
				time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
				continue
			}
			return fmt.Errorf("shipper hold: %w", err)
		}

		for _, next := range []shipment.Status{
			shipment.StatusMatched, shipment.StatusAccepted,
			shipment.StatusInTransit, shipment.StatusDelivered,
		} {
			if _, err := env.Shipments.Transition(ctx, sh.ID, next); err != nil {
				return fmt.Errorf("shipper transition %s: %w", next, err)
			}
		}
		if _, err := env.Shipments.ConfirmDelivery(ctx, sh.ID); err != nil {
			return fmt.Errorf("shipper confirm: %w", err)
		}
		if _, err := env.Wallets.ReleaseEscrow(ctx, sh.ID, price, ""); err != nil {
			return fmt.Errorf("shipper release: %w", err)
		}

		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}

// Canceller posts shipments it immediately cancels and refunds, exercising
// the refund leg against concurrent releases.
func Canceller(ctx context.Context, env *Env, shipperID, transporterID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		price := int64(30000 + rand.Intn(70000))
		sh, err := env.Shipments.Post(ctx, lifecycle.PostParams{
			ShipperID:           shipperID,
			Origin:              shipment.Location{City: "Mzuzu"},
			Destination:         shipment.Location{City: "Lilongwe"},
			CargoType:           shipment.CargoGeneral,
			WeightKg:            float64(500 + rand.Intn(2000)),
			RequiredVehicleType: shipment.VehicleCanter,
			PriceMWK:            price,
			PaymentMethod:       shipment.PaymentMobileMoney,
		})
		if err != nil {
			return fmt.Errorf("canceller post: %w", err)
		}

		_, err = env.Wallets.CreateEscrowHold(ctx, wallet.CreateEscrowParams{
			ShipmentID:    sh.ID,
			ShipperID:     shipperID,
			TransporterID: transporterID,
			GrossAmount:   price,
			VehicleType:   sh.RequiredVehicleType,
			PaymentMethod: sh.PaymentMethod,
		})
		if err != nil {
			var violation *invariant.ViolationError
			if errors.As(err, &violation) {
				time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
				continue
			}
			return fmt.Errorf("canceller hold: %w", err)
		}

		if _, err := env.Shipments.Cancel(ctx, sh.ID); err != nil {
			return fmt.Errorf("canceller cancel: %w", err)
		}
		if _, err := env.Wallets.RefundEscrow(ctx, sh.ID, "cancelled_before_pickup"); err != nil {
			return fmt.Errorf("canceller refund: %w", err)
		}

		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// Withdrawer drains the transporter's earnings through the two-phase
// withdrawal. Insufficient funds and below-minimum rejections are the
// expected steady state early in a run.
func Withdrawer(ctx context.Context, env *Env, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		amount := int64(1000 + rand.Intn(100000))
		tx, err := env.Wallets.RequestWithdrawal(ctx, userID, amount)
		switch {
		case err == nil:
			if err := env.Wallets.CompleteWithdrawal(ctx, tx.ID); err != nil {
				return fmt.Errorf("withdrawer complete: %w", err)
			}
		case errors.Is(err, wallet.ErrInsufficientFunds),
			errors.Is(err, wallet.ErrBelowMinimumWithdrawal):
			// nothing earned yet
		default:
			return fmt.Errorf("withdrawer request: %w", err)
		}

		time.Sleep(time.Duration(15+rand.Intn(35)) * time.Millisecond)
	}
}
