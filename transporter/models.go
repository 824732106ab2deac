package transporter

import (
	"time"

	"mzigo/shipment"
)

// Profile describes a registered transporter and their vehicle. Profiles are
// never deleted, only deactivated.
type Profile struct {
	ID                string
	Name              string
	Phone             string
	PlateNumber       string
	VehicleType       shipment.VehicleType
	VehicleCapacityKg float64
	CurrentLocation   shipment.Location
	Rating            float64
	OnTimeRate        float64
	IsAvailable       bool
	IsActive          bool
	HasRefrigeration  bool
	PreferredRoutes   []shipment.Route
	NoShows           []time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NoShowsSince counts no-shows recorded after the cutoff.
func (p Profile) NoShowsSince(cutoff time.Time) int {
	count := 0
	for _, at := range p.NoShows {
		if at.After(cutoff) {
			count++
		}
	}
	return count
}

// PrefersRoute reports whether the route appears in the transporter's
// preferred list.
func (p Profile) PrefersRoute(route shipment.Route) bool {
	for _, r := range p.PreferredRoutes {
		if r == route {
			return true
		}
	}
	return false
}
