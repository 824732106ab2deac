package transporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mzigo/shipment"
)

var (
	// ErrNotFound signals the requested transporter does not exist.
	ErrNotFound = errors.New("transporter: not found")
	// ErrMissingID signals a profile without an identity.
	ErrMissingID = errors.New("transporter: missing profile id")
)

// PGStore is the pgxpool-backed profile store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wires a pgxpool-backed store implementation.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const profileColumns = `
	id, name, phone, plate_number, vehicle_type, vehicle_capacity_kg,
	location_city, location_district, location_region,
	rating, on_time_rate, is_available, is_active, has_refrigeration,
	preferred_routes, no_shows, created_at, updated_at
`

// GetByID fetches a transporter profile by its primary key.
func (s *PGStore) GetByID(ctx context.Context, id string) (Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM transporters WHERE id = $1`, profileColumns)
	p, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("transporter: query by id: %w", err)
	}
	return p, nil
}

// Save upserts a profile.
func (s *PGStore) Save(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return ErrMissingID
	}
	routes, err := json.Marshal(p.PreferredRoutes)
	if err != nil {
		return fmt.Errorf("transporter: marshal preferred routes: %w", err)
	}
	noShows, err := json.Marshal(p.NoShows)
	if err != nil {
		return fmt.Errorf("transporter: marshal no-shows: %w", err)
	}

	const query = `
		INSERT INTO transporters (
			id, name, phone, plate_number, vehicle_type, vehicle_capacity_kg,
			location_city, location_district, location_region,
			rating, on_time_rate, is_available, is_active, has_refrigeration,
			preferred_routes, no_shows, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			plate_number = EXCLUDED.plate_number,
			vehicle_type = EXCLUDED.vehicle_type,
			vehicle_capacity_kg = EXCLUDED.vehicle_capacity_kg,
			location_city = EXCLUDED.location_city,
			location_district = EXCLUDED.location_district,
			location_region = EXCLUDED.location_region,
			rating = EXCLUDED.rating,
			on_time_rate = EXCLUDED.on_time_rate,
			is_available = EXCLUDED.is_available,
			is_active = EXCLUDED.is_active,
			has_refrigeration = EXCLUDED.has_refrigeration,
			preferred_routes = EXCLUDED.preferred_routes,
			no_shows = EXCLUDED.no_shows,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Phone, p.PlateNumber, string(p.VehicleType), p.VehicleCapacityKg,
		p.CurrentLocation.City, p.CurrentLocation.District, p.CurrentLocation.Region,
		p.Rating, p.OnTimeRate, p.IsAvailable, p.IsActive, p.HasRefrigeration,
		routes, noShows,
	); err != nil {
		return fmt.Errorf("transporter: upsert profile: %w", err)
	}
	return nil
}

// ListActive fetches every active transporter ordered by id.
func (s *PGStore) ListActive(ctx context.Context) ([]Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM transporters WHERE is_active ORDER BY id ASC`, profileColumns)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("transporter: list active: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("transporter: scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transporter: iterate profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p           Profile
		vehicleType string
		routesRaw   []byte
		noShowsRaw  []byte
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.PlateNumber, &vehicleType, &p.VehicleCapacityKg,
		&p.CurrentLocation.City, &p.CurrentLocation.District, &p.CurrentLocation.Region,
		&p.Rating, &p.OnTimeRate, &p.IsAvailable, &p.IsActive, &p.HasRefrigeration,
		&routesRaw, &noShowsRaw, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return Profile{}, err
	}
	p.VehicleType = shipment.VehicleType(vehicleType)
	if len(routesRaw) > 0 {
		if err := json.Unmarshal(routesRaw, &p.PreferredRoutes); err != nil {
			return Profile{}, fmt.Errorf("unmarshal preferred routes: %w", err)
		}
	}
	if len(noShowsRaw) > 0 {
		if err := json.Unmarshal(noShowsRaw, &p.NoShows); err != nil {
			return Profile{}, fmt.Errorf("unmarshal no-shows: %w", err)
		}
	}
	return p, nil
}
