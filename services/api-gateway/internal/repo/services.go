package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/pricing"
)

type ServicesPG struct{ DB *pgxpool.Pool }

func (r *ServicesPG) List(ctx context.Context) ([]models.Service, error) {
	rows, err := r.DB.Query(ctx, `
		select id, name, vehicle_type, base_fare_cents, per_km_cents, per_kg_cents, min_fare_cents, active
		from services where active order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.VehicleType, &s.BaseFareCents, &s.PerKmCents, &s.PerKgCents, &s.MinFareCents, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ServicesPG) Get(ctx context.Context, id string) (models.Service, error) {
	var s models.Service
	err := r.DB.QueryRow(ctx, `
		select id, name, vehicle_type, base_fare_cents, per_km_cents, per_kg_cents, min_fare_cents, active
		from services where id = $1
	`, id).Scan(&s.ID, &s.Name, &s.VehicleType, &s.BaseFareCents, &s.PerKmCents, &s.PerKgCents, &s.MinFareCents, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Service{}, ErrNotFound
	}
	return s, err
}

// Rules loads a service's surcharge/discount rules in evaluation order.
func (r *ServicesPG) Rules(ctx context.Context, serviceID string) ([]pricing.Rule, error) {
	rows, err := r.DB.Query(ctx, `
		select name, kind, field, op, min_val, max_val, percent_bp, flat_cents
		from pricing_rules where service_id = $1 order by position
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		var rule pricing.Rule
		var kind, field, op string
		if err := rows.Scan(&rule.Name, &kind, &field, &op, &rule.Min, &rule.Max, &rule.PercentBP, &rule.FlatCents); err != nil {
			return nil, err
		}
		rule.Kind = pricing.RuleKind(kind)
		rule.Field = pricing.Field(field)
		rule.Op = pricing.Op(op)
		out = append(out, rule)
	}
	return out, rows.Err()
}
