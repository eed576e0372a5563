package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrOrderNotFound = errors.New("order not found")

func (r *PaymentsPG) OrderTotal(ctx context.Context, orderID string) (int, error) {
	var total int
	err := r.DB.QueryRow(ctx, `select total_cents from orders where id = $1`, orderID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrOrderNotFound
	}
	return total, err
}
