package shipment

import "time"

// CargoType classifies what a shipment carries. The set is closed; pricing
// and compatibility tables key off it.
type CargoType string

const (
	CargoMaize        CargoType = "maize"
	CargoTobacco      CargoType = "tobacco"
	CargoFertilizer   CargoType = "fertilizer"
	CargoGeneral      CargoType = "general"
	CargoHousehold    CargoType = "household"
	CargoConstruction CargoType = "construction"
	CargoPerishable   CargoType = "perishable"
	CargoLivestock    CargoType = "livestock"
	CargoFuel         CargoType = "fuel"
	CargoHazardous    CargoType = "hazardous"
)

// VehicleType classifies the transporter's vehicle.
type VehicleType string

const (
	VehicleMotorcycle   VehicleType = "motorcycle"
	VehiclePickup       VehicleType = "pickup"
	VehicleCanter       VehicleType = "canter"
	VehicleMediumTruck  VehicleType = "medium_truck"
	VehicleLargeTruck   VehicleType = "large_truck"
	VehicleTanker       VehicleType = "tanker"
	VehicleRefrigerated VehicleType = "refrigerated_truck"
	VehicleFlatbed      VehicleType = "flatbed"
)

// PaymentMethod identifies how the shipper intends to pay.
type PaymentMethod string

const (
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCash         PaymentMethod = "cash"
)

// Coordinates are decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Location identifies a pickup or drop-off point. Coordinates are optional;
// pricing falls back to the city-pair distance table when they are absent.
type Location struct {
	City        string
	District    string
	Region      string
	Landmark    string
	Coordinates *Coordinates
}

// Shipment is a posted load moving through the state machine in status.go.
type Shipment struct {
	ID                  string
	ShipperID           string
	TransporterID       string // set when a transporter accepts the load
	Origin              Location
	Destination         Location
	CargoType           CargoType
	WeightKg            float64
	RequiredVehicleType VehicleType
	PriceMWK            int64
	PaymentMethod       PaymentMethod
	CashVerified        bool
	Status              Status
	IsBackhaul          bool
	IsReviewed          bool
	ShipperConfirmed    bool
	SeasonalCategory    string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Route is an origin/destination city pair, directional.
type Route struct {
	OriginCity      string
	DestinationCity string
}
