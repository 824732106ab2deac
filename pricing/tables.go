package pricing

import (
	"time"

	"mzigo/shipment"
)

// baseRatePerKm is the MWK/km rate per vehicle class.
var baseRatePerKm = map[shipment.VehicleType]float64{
	shipment.VehicleMotorcycle:   120,
	shipment.VehiclePickup:       350,
	shipment.VehicleCanter:       550,
	shipment.VehicleMediumTruck:  800,
	shipment.VehicleRefrigerated: 950,
	shipment.VehicleLargeTruck:   1200,
	shipment.VehicleTanker:       1400,
	shipment.VehicleFlatbed:      1300,
}

// defaultBaseRate applies when a vehicle class has no entry.
const defaultBaseRate = 600

// cityPairKm lists known road distances between Malawi corridor cities.
// Lookup is symmetric; DefaultDistanceKm covers unknown pairs.
var cityPairKm = map[[2]string]float64{
	{"Lilongwe", "Blantyre"}:  311,
	{"Lilongwe", "Mzuzu"}:     370,
	{"Lilongwe", "Zomba"}:     287,
	{"Lilongwe", "Kasungu"}:   127,
	{"Lilongwe", "Salima"}:    98,
	{"Lilongwe", "Mchinji"}:   109,
	{"Lilongwe", "Dedza"}:     86,
	{"Blantyre", "Zomba"}:     65,
	{"Blantyre", "Mzuzu"}:     656,
	{"Blantyre", "Mulanje"}:   84,
	{"Blantyre", "Mangochi"}:  192,
	{"Mzuzu", "Karonga"}:      220,
	{"Mzuzu", "Nkhata Bay"}:   47,
	{"Zomba", "Mangochi"}:     147,
	{"Salima", "Nkhotakota"}:  110,
	{"Kasungu", "Mzuzu"}:      245,
	{"Dedza", "Ntcheu"}:       74,
	{"Ntcheu", "Balaka"}:      68,
	{"Balaka", "Blantyre"}:    112,
	{"Lilongwe", "Nkhotakota"}: 208,
}

// DefaultDistanceKm stands in for city pairs missing from the table.
const DefaultDistanceKm = 200

// seasonalFactor is one seasonal multiplier window per cargo type. At most
// one factor applies to a cargo type in a given month.
type seasonalFactor struct {
	from       time.Month
	to         time.Month
	multiplier float64
}

// seasonalFactors prices harvest and auction pressure into the affected
// cargo types: maize harvest Apr-Jun, tobacco auctions Mar-Aug, fertilizer
// distribution Oct-Dec.
var seasonalFactors = map[shipment.CargoType]seasonalFactor{
	shipment.CargoMaize:      {from: time.April, to: time.June, multiplier: 1.25},
	shipment.CargoTobacco:    {from: time.March, to: time.August, multiplier: 1.35},
	shipment.CargoFertilizer: {from: time.October, to: time.December, multiplier: 1.20},
}

// routeDemand is keyed by exact origin→destination pair and is deliberately
// asymmetric: freight into Lilongwe outstrips freight out of it.
var routeDemand = map[shipment.Route]float64{
	{OriginCity: "Blantyre", DestinationCity: "Lilongwe"}: 1.20,
	{OriginCity: "Lilongwe", DestinationCity: "Blantyre"}: 1.10,
	{OriginCity: "Lilongwe", DestinationCity: "Mzuzu"}:    1.15,
	{OriginCity: "Mzuzu", DestinationCity: "Lilongwe"}:    0.95,
	{OriginCity: "Blantyre", DestinationCity: "Zomba"}:    1.05,
	{OriginCity: "Zomba", DestinationCity: "Blantyre"}:    0.90,
	{OriginCity: "Salima", DestinationCity: "Lilongwe"}:   1.10,
	{OriginCity: "Karonga", DestinationCity: "Mzuzu"}:     1.05,
}

// cargoSurchargeRate is the handling surcharge per cargo type, applied to
// the distance+weight base.
var cargoSurchargeRate = map[shipment.CargoType]float64{
	shipment.CargoHazardous:  0.25,
	shipment.CargoFuel:       0.30,
	shipment.CargoLivestock:  0.15,
	shipment.CargoPerishable: 0.10,
}

// seasonalMultiplier returns the factor for the cargo type in the given
// month, 1.0 when none applies.
func seasonalMultiplier(cargo shipment.CargoType, month time.Month) float64 {
	factor, ok := seasonalFactors[cargo]
	if !ok {
		return 1.0
	}
	if month >= factor.from && month <= factor.to {
		return factor.multiplier
	}
	return 1.0
}

// demandMultiplier returns the route demand factor, 1.0 for unlisted pairs.
func demandMultiplier(originCity, destinationCity string) float64 {
	if m, ok := routeDemand[shipment.Route{OriginCity: originCity, DestinationCity: destinationCity}]; ok {
		return m
	}
	return 1.0
}

// lookupCityPairKm finds the tabulated distance for a pair in either order.
func lookupCityPairKm(a, b string) (float64, bool) {
	if km, ok := cityPairKm[[2]string{a, b}]; ok {
		return km, true
	}
	if km, ok := cityPairKm[[2]string{b, a}]; ok {
		return km, true
	}
	return 0, false
}
