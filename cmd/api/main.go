package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mzigo/config"
	"mzigo/db"
	"mzigo/invariant"
	"mzigo/matching"
	"mzigo/pricing"
	"mzigo/rules"
	"mzigo/shipment"
	"mzigo/shipment/lifecycle"
	"mzigo/transporter"
	"mzigo/ussd"
	"mzigo/wallet"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("bootstrap config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	promReg := prometheus.NewRegistry()

	registry, err := rules.Register(cfg)
	if err != nil {
		log.Fatalf("bootstrap rule registry: %v", err)
	}
	enforcer := invariant.NewEngine(registry,
		invariant.WithLogger(logger),
		invariant.WithMetrics(invariant.NewMetrics(promReg)),
	)

	var (
		shipmentStore    lifecycle.Store
		transporterStore transporter.Store
		walletStore      wallet.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("bootstrap database pool: %v", err)
		}
		defer pool.Close()
		shipmentStore = shipment.NewPGStore(pool)
		transporterStore = transporter.NewPGStore(pool)
		walletStore = wallet.NewPGStore(pool)
	} else {
		shipmentStore = shipment.NewMemoryStore()
		transporterStore = transporter.NewMemoryStore()
		walletStore = wallet.NewMemoryStore()
	}

	lifecycleService := lifecycle.NewService(shipmentStore, enforcer)
	transporterService := transporter.NewService(transporterStore, enforcer, cfg)
	pricer := pricing.NewEngine(cfg)
	offers := matching.NewOfferStore()
	matcher := matching.NewEngine(enforcer, transporterService, pricer, offers, cfg)
	dispatcher := matching.NewDispatcher(matcher, lifecycleService)
	walletEngine := wallet.NewEngine(walletStore, shipmentStore, enforcer, cfg)
	sessions := ussd.NewService(enforcer, cfg)

	server := &Server{
		cfg:          cfg,
		shipments:    lifecycleService,
		store:        shipmentStore,
		transporters: transporterService,
		pricer:       pricer,
		matcher:      matcher,
		dispatcher:   dispatcher,
		wallets:      walletEngine,
		sessions:     sessions,
		enforcer:     enforcer,
	}

	mux := server.routes()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	log.Printf("mzigo api listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("serve api: %v", err)
	}
}
