package chaos

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"mzigo/test/actors"
)

// Saboteur fires deliberately invalid operations at the wallet engine:
// releases for unknown shipments, duplicate escrows, oversized withdrawals.
// Every call must be rejected cleanly; any success is corruption.
func Saboteur(ctx context.Context, env *actors.Env, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		switch rand.Intn(3) {
		case 0:
			if _, err := env.Wallets.ReleaseEscrow(ctx, uuid.NewString(), 0, ""); err == nil {
				return fmt.Errorf("saboteur: release of unknown shipment succeeded")
			}
		case 1:
			if _, err := env.Wallets.RefundEscrow(ctx, uuid.NewString(), "sabotage"); err == nil {
				return fmt.Errorf("saboteur: refund of unknown shipment succeeded")
			}
		case 2:
			// a broke account cannot withdraw
			if _, err := env.Wallets.RequestWithdrawal(ctx, "saboteur-"+uuid.NewString(), 1_000_000); err == nil {
				return fmt.Errorf("saboteur: withdrawal from empty wallet succeeded")
			}
		}

		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}
