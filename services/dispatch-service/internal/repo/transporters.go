package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/services/dispatch-service/internal/dispatch"
)

var ErrNoTransporter = errors.New("no transporter to release")

type TransportersPG struct{ DB *pgxpool.Pool }

// Candidates returns available transporters driving the requested vehicle
// class, most recently seen first.
func (r *TransportersPG) Candidates(ctx context.Context, vehicleType string, limit int) ([]dispatch.Candidate, error) {
	rows, err := r.DB.Query(ctx, `
		select user_id, lat, lng
		from transporter_profiles
		where available and vehicle_type = $1
		order by updated_at desc
		limit $2
	`, vehicleType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dispatch.Candidate
	for rows.Next() {
		var c dispatch.Candidate
		if err := rows.Scan(&c.UserID, &c.Lat, &c.Lng); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AwaitingAssignment reports whether the order still needs a transporter.
// False for assigned, cancelled or unknown orders, so redelivered
// orders.created events become no-ops.
func (r *TransportersPG) AwaitingAssignment(ctx context.Context, orderID string) (bool, error) {
	var waiting bool
	err := r.DB.QueryRow(ctx, `
		select transporter_id is null and status = 'pending'
		from orders
		where id = $1
	`, orderID).Scan(&waiting)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return waiting, err
}

// Claim marks the transporter busy and stamps them on the order. Returns
// false when someone else claimed the transporter or the order first.
func (r *TransportersPG) Claim(ctx context.Context, transporterID, orderID string) (bool, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		update transporter_profiles set available = false, updated_at = now()
		where user_id = $1 and available
	`, transporterID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	ct, err = tx.Exec(ctx, `
		update orders set transporter_id = $1, updated_at = now()
		where id = $2 and transporter_id is null and status = 'pending'
	`, transporterID, orderID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	return true, tx.Commit(ctx)
}

// Release frees the transporter assigned to the order (compensation path).
func (r *TransportersPG) Release(ctx context.Context, orderID string) (string, error) {
	var transporterID string
	err := r.DB.QueryRow(ctx, `
		select transporter_id::text from orders
		where id = $1 and transporter_id is not null
	`, orderID).Scan(&transporterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoTransporter
	}
	if err != nil {
		return "", err
	}

	_, err = r.DB.Exec(ctx, `
		update transporter_profiles set available = true, updated_at = now()
		where user_id = $1
	`, transporterID)
	return transporterID, err
}
