package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config collects every tunable business constant in one place. The defaults
// mirror the launch configuration for the Malawi corridor; any of them can be
// overridden through the environment without a rebuild.
type Config struct {
	// CommissionRate is the platform's cut of every released escrow.
	CommissionRate float64 `env:"MZIGO_COMMISSION_RATE" envDefault:"0.05"`
	// BackhaulDiscount is applied to the subtotal when a transporter would
	// otherwise return empty.
	BackhaulDiscount float64 `env:"MZIGO_BACKHAUL_DISCOUNT" envDefault:"0.40"`
	// MinShipmentPrice is the hard floor for any gross price, in MWK.
	MinShipmentPrice int64 `env:"MZIGO_MIN_SHIPMENT_PRICE" envDefault:"25000"`
	// MinHeavyVehiclePrice is the minimum price for medium/large trucks and
	// tankers, in MWK.
	MinHeavyVehiclePrice int64 `env:"MZIGO_MIN_HEAVY_VEHICLE_PRICE" envDefault:"25000"`
	// MinWithdrawal is the smallest wallet withdrawal accepted, in MWK.
	MinWithdrawal int64 `env:"MZIGO_MIN_WITHDRAWAL" envDefault:"1000"`
	// MatchScoreFloor is the lowest match score ever surfaced to a transporter.
	MatchScoreFloor int `env:"MZIGO_MATCH_SCORE_FLOOR" envDefault:"30"`
	// HighValueReviewThreshold marks shipments that need manual review before
	// matching, in MWK.
	HighValueReviewThreshold int64 `env:"MZIGO_HIGH_VALUE_REVIEW_THRESHOLD" envDefault:"500000"`
	// LoadOfferTTL bounds how long a dispatched load offer stays open.
	LoadOfferTTL time.Duration `env:"MZIGO_LOAD_OFFER_TTL" envDefault:"60s"`
	// USSDSessionMinTTL is the shortest session lifetime USSD menus may use.
	USSDSessionMinTTL time.Duration `env:"MZIGO_USSD_SESSION_MIN_TTL" envDefault:"600s"`
	// NoShowSuspensionCount is the no-show count that mandates suspension.
	NoShowSuspensionCount int `env:"MZIGO_NOSHOW_SUSPENSION_COUNT" envDefault:"3"`
	// NoShowWindow bounds how far back no-shows count toward suspension.
	NoShowWindow time.Duration `env:"MZIGO_NOSHOW_WINDOW" envDefault:"720h"`
	// DispatchLimit caps how many load offers auto-dispatch fans out.
	DispatchLimit int `env:"MZIGO_DISPATCH_LIMIT" envDefault:"5"`
	// DatabaseURL, when set, switches storage from in-memory to Postgres.
	DatabaseURL string `env:"DATABASE_URL"`
	// ListenAddr is where the API server binds.
	ListenAddr string `env:"MZIGO_LISTEN_ADDR" envDefault:":8080"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the launch configuration without consulting the environment.
func Default() Config {
	return Config{
		CommissionRate:           0.05,
		BackhaulDiscount:         0.40,
		MinShipmentPrice:         25000,
		MinHeavyVehiclePrice:     25000,
		MinWithdrawal:            1000,
		MatchScoreFloor:          30,
		HighValueReviewThreshold: 500000,
		LoadOfferTTL:             60 * time.Second,
		USSDSessionMinTTL:        600 * time.Second,
		NoShowSuspensionCount:    3,
		NoShowWindow:             720 * time.Hour,
		DispatchLimit:            5,
		ListenAddr:               ":8080",
	}
}
