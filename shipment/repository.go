package shipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the pgxpool-backed shipment store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wires a pgxpool-backed store implementation.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const shipmentColumns = `
	id, shipper_id, transporter_id,
	origin_city, origin_district, origin_region,
	destination_city, destination_district, destination_region,
	cargo_type, weight_kg, required_vehicle_type,
	price_mwk, payment_method, cash_verified,
	status, is_backhaul, is_reviewed, shipper_confirmed,
	seasonal_category, created_at, updated_at
`

// Get fetches a shipment by id.
func (s *PGStore) Get(ctx context.Context, id string) (Shipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shipments WHERE id = $1`, shipmentColumns)
	sh, err := scanShipment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shipment{}, ErrNotFound
		}
		return Shipment{}, fmt.Errorf("shipment: query by id: %w", err)
	}
	return sh, nil
}

// Save upserts a shipment.
func (s *PGStore) Save(ctx context.Context, sh Shipment) error {
	if sh.ID == "" {
		return ErrMissingID
	}
	const query = `
		INSERT INTO shipments (
			id, shipper_id, transporter_id,
			origin_city, origin_district, origin_region,
			destination_city, destination_district, destination_region,
			cargo_type, weight_kg, required_vehicle_type,
			price_mwk, payment_method, cash_verified,
			status, is_backhaul, is_reviewed, shipper_confirmed,
			seasonal_category, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET
			transporter_id = EXCLUDED.transporter_id,
			price_mwk = EXCLUDED.price_mwk,
			payment_method = EXCLUDED.payment_method,
			cash_verified = EXCLUDED.cash_verified,
			status = EXCLUDED.status,
			is_backhaul = EXCLUDED.is_backhaul,
			is_reviewed = EXCLUDED.is_reviewed,
			shipper_confirmed = EXCLUDED.shipper_confirmed,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query,
		sh.ID, sh.ShipperID, sh.TransporterID,
		sh.Origin.City, sh.Origin.District, sh.Origin.Region,
		sh.Destination.City, sh.Destination.District, sh.Destination.Region,
		string(sh.CargoType), sh.WeightKg, string(sh.RequiredVehicleType),
		sh.PriceMWK, string(sh.PaymentMethod), sh.CashVerified,
		string(sh.Status), sh.IsBackhaul, sh.IsReviewed, sh.ShipperConfirmed,
		sh.SeasonalCategory,
	); err != nil {
		return fmt.Errorf("shipment: upsert: %w", err)
	}
	return nil
}

// ListByStatus fetches shipments in the given status ordered by id.
func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]Shipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM shipments WHERE status = $1 ORDER BY id ASC`, shipmentColumns)
	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("shipment: list by status: %w", err)
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("shipment: scan: %w", err)
		}
		shipments = append(shipments, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("shipment: iterate: %w", err)
	}
	return shipments, nil
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		sh                      Shipment
		cargo, vehicle, payment string
		status                  string
	)
	if err := row.Scan(
		&sh.ID, &sh.ShipperID, &sh.TransporterID,
		&sh.Origin.City, &sh.Origin.District, &sh.Origin.Region,
		&sh.Destination.City, &sh.Destination.District, &sh.Destination.Region,
		&cargo, &sh.WeightKg, &vehicle,
		&sh.PriceMWK, &payment, &sh.CashVerified,
		&status, &sh.IsBackhaul, &sh.IsReviewed, &sh.ShipperConfirmed,
		&sh.SeasonalCategory, &sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		return Shipment{}, err
	}
	sh.CargoType = CargoType(cargo)
	sh.RequiredVehicleType = VehicleType(vehicle)
	sh.PaymentMethod = PaymentMethod(payment)
	sh.Status = Status(status)
	return sh, nil
}
