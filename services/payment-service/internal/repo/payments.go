package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentsPG struct{ DB *pgxpool.Pool }

// HasAuthorized reports whether the order was already charged, so a
// redelivered dispatch.assigned never hits the provider twice.
func (r *PaymentsPG) HasAuthorized(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `
		select exists(select 1 from payments where order_id = $1 and status = 'authorized')
	`, orderID).Scan(&exists)
	return exists, err
}

func (r *PaymentsPG) RecordAuthorized(ctx context.Context, orderID string, amountCents int, providerRef string) error {
	_, err := r.DB.Exec(ctx, `
		insert into payments(id, order_id, amount_cents, status, provider_ref)
		values ($1, $2, $3, 'authorized', $4)
	`, uuid.NewString(), orderID, amountCents, providerRef)
	return err
}

func (r *PaymentsPG) RecordFailed(ctx context.Context, orderID string, amountCents int, reason string) error {
	_, err := r.DB.Exec(ctx, `
		insert into payments(id, order_id, amount_cents, status, reason)
		values ($1, $2, $3, 'failed', $4)
	`, uuid.NewString(), orderID, amountCents, reason)
	return err
}
