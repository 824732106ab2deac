package shipment

// cargoCompatibility maps each cargo type to the vehicle types allowed to
// carry it. Combinations not listed are forbidden outright: fuel moves only
// in tankers, perishables only in refrigerated trucks.
var cargoCompatibility = map[CargoType][]VehicleType{
	CargoMaize:        {VehiclePickup, VehicleCanter, VehicleMediumTruck, VehicleLargeTruck, VehicleFlatbed},
	CargoTobacco:      {VehicleCanter, VehicleMediumTruck, VehicleLargeTruck},
	CargoFertilizer:   {VehiclePickup, VehicleCanter, VehicleMediumTruck, VehicleLargeTruck, VehicleFlatbed},
	CargoGeneral:      {VehicleMotorcycle, VehiclePickup, VehicleCanter, VehicleMediumTruck, VehicleLargeTruck, VehicleFlatbed},
	CargoHousehold:    {VehiclePickup, VehicleCanter, VehicleMediumTruck, VehicleLargeTruck},
	CargoConstruction: {VehicleCanter, VehicleMediumTruck, VehicleLargeTruck, VehicleFlatbed},
	CargoPerishable:   {VehicleRefrigerated},
	CargoLivestock:    {VehicleCanter, VehicleMediumTruck, VehicleLargeTruck, VehicleFlatbed},
	CargoFuel:         {VehicleTanker},
	CargoHazardous:    {VehicleTanker, VehicleMediumTruck, VehicleLargeTruck},
}

// CargoCompatible reports whether the vehicle type may carry the cargo type.
func CargoCompatible(cargo CargoType, vehicle VehicleType) bool {
	for _, v := range cargoCompatibility[cargo] {
		if v == vehicle {
			return true
		}
	}
	return false
}

// AllowedVehicles returns the vehicle types permitted for a cargo type.
func AllowedVehicles(cargo CargoType) []VehicleType {
	allowed := cargoCompatibility[cargo]
	out := make([]VehicleType, len(allowed))
	copy(out, allowed)
	return out
}

// classRating is the nominal rated capacity of each vehicle class in kg,
// independent of the specific vehicle's plated capacity. The matching engine
// uses it to keep oversized loads away from light classes.
var classRating = map[VehicleType]float64{
	VehicleMotorcycle:   150,
	VehiclePickup:       1200,
	VehicleCanter:       4000,
	VehicleMediumTruck:  8000,
	VehicleRefrigerated: 8000,
	VehicleLargeTruck:   28000,
	VehicleTanker:       25000,
	VehicleFlatbed:      30000,
}

// ClassRatingKg returns the nominal rated capacity for a vehicle class.
func ClassRatingKg(vehicle VehicleType) float64 {
	return classRating[vehicle]
}

// IsHeavyVehicle reports whether the vehicle class is subject to the
// heavy-vehicle minimum price.
func IsHeavyVehicle(vehicle VehicleType) bool {
	switch vehicle {
	case VehicleMediumTruck, VehicleLargeTruck, VehicleTanker:
		return true
	}
	return false
}

// minVehicleClass maps cargo types to the lightest class rank allowed to
// carry them regardless of raw capacity. Ranks follow classRank below.
var minVehicleClass = map[CargoType]int{
	CargoConstruction: rankCanter,
	CargoLivestock:    rankCanter,
	CargoTobacco:      rankCanter,
	CargoFuel:         rankMedium,
	CargoHazardous:    rankMedium,
}

const (
	rankMotorcycle = iota
	rankPickup
	rankCanter
	rankMedium
	rankLarge
)

var classRank = map[VehicleType]int{
	VehicleMotorcycle:   rankMotorcycle,
	VehiclePickup:       rankPickup,
	VehicleCanter:       rankCanter,
	VehicleMediumTruck:  rankMedium,
	VehicleRefrigerated: rankMedium,
	VehicleTanker:       rankLarge,
	VehicleLargeTruck:   rankLarge,
	VehicleFlatbed:      rankLarge,
}

// MeetsMinimumClass reports whether the vehicle class meets the cargo's
// minimum class requirement. Cargo without an entry has no minimum.
func MeetsMinimumClass(cargo CargoType, vehicle VehicleType) bool {
	min, ok := minVehicleClass[cargo]
	if !ok {
		return true
	}
	return classRank[vehicle] >= min
}

// RequiresRefrigeration reports whether the cargo must move cold.
func RequiresRefrigeration(cargo CargoType) bool {
	return cargo == CargoPerishable
}
