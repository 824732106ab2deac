package test

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"mzigo/config"
	"mzigo/invariant"
	"mzigo/rules"
	"mzigo/shipment"
	"mzigo/shipment/lifecycle"
	"mzigo/test/actors"
	"mzigo/test/chaos"
	"mzigo/test/oracles"
	"mzigo/wallet"
)

var (
	flDuration    = flag.Duration("duration", 20*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent shipper/canceller pairs")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
)

// TestWalletConcurrency hammers the escrow engine with concurrent deposits,
// holds, releases, refunds and withdrawals, pausing between phases to check
// the consistency oracles against a quiescent store. Oracles only hold at
// quiescence because multi-wallet moves are not atomic across wallets.
func TestWalletConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	rand.Seed(seed)

	cfg := config.Default()
	registry, err := rules.Register(cfg)
	if err != nil {
		t.Fatalf("register rules: %v", err)
	}
	enforcer := invariant.NewEngine(registry)

	shipmentStore := shipment.NewMemoryStore()
	walletStore := wallet.NewMemoryStore()
	env := &actors.Env{
		Wallets:   wallet.NewEngine(walletStore, shipmentStore, enforcer, cfg),
		Shipments: lifecycle.NewService(shipmentStore, enforcer),
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+30*time.Second)
	defer cancel()

	deadline := time.Now().Add(*flDuration)
	phase := 0
	for time.Now().Before(deadline) {
		phase++
		runPhase(ctx, t, env, 2*time.Second)

		if state, reason := enforcer.State(); state == invariant.StateFrozen {
			t.Fatalf("engine froze during phase %d: %s (seed=%d)", phase, reason, seed)
		}
		if name, detail := oracles.Run(walletStore); name != "" {
			t.Fatalf("oracle %s failed in phase %d: %s (seed=%d)", name, phase, detail, seed)
		}
	}

	if phase == 0 {
		t.Fatal("stress run completed zero phases")
	}
	t.Logf("completed %d phases over %s (seed=%d, wallets=%d, escrows=%d)",
		phase, *flDuration, seed, len(walletStore.AllWallets()), len(walletStore.AllEscrows()))
}

func runPhase(ctx context.Context, t *testing.T, env *actors.Env, d time.Duration) {
	t.Helper()

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Shipper(ctx2, env, "shipper-a", "carrier-1", stop) })
		g.Go(func() error { return actors.Canceller(ctx2, env, "shipper-b", "carrier-1", stop) })
	}
	g.Go(func() error { return actors.Depositor(ctx2, env, "shipper-a", stop) })
	g.Go(func() error { return actors.Depositor(ctx2, env, "shipper-b", stop) })
	g.Go(func() error { return actors.Withdrawer(ctx2, env, "carrier-1", stop) })
	g.Go(func() error { return chaos.Saboteur(ctx2, env, stop) })

	time.Sleep(d)
	close(stop)

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}
