package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/shared/pkg/models"
	"delivery-order-system/shared/pkg/pricing"
)

type OrdersPG struct {
	DB     *pgxpool.Pool
	Outbox *OutboxPG
}

const orderColumns = `
	o.id, o.customer_id, coalesce(o.transporter_id::text, ''), o.service_id, o.status,
	o.weight_kg, o.distance_km, o.total_cents, o.created_at, o.updated_at,
	p.address, p.lat, p.lng, p.contact_name, p.contact_phone,
	d.address, d.lat, d.lng, d.contact_name, d.contact_phone
`

const orderJoins = `
	from orders o
	join order_stops p on p.order_id = o.id and p.kind = 'pickup'
	join order_stops d on d.order_id = o.id and d.kind = 'dropoff'
`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.TransporterID, &o.ServiceID, &status,
		&o.WeightKg, &o.DistanceKm, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt,
		&o.Pickup.Address, &o.Pickup.Lat, &o.Pickup.Lng, &o.Pickup.ContactName, &o.Pickup.ContactPhone,
		&o.Dropoff.Address, &o.Dropoff.Lat, &o.Dropoff.Lng, &o.Dropoff.ContactName, &o.Dropoff.ContactPhone,
	)
	o.Status = models.OrderStatus(status)
	return o, err
}

func (r *OrdersPG) Get(ctx context.Context, orderID string) (models.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `select `+orderColumns+orderJoins+` where o.id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, ErrNotFound
	}
	return o, err
}

func (r *OrdersPG) list(ctx context.Context, where string, arg any) ([]models.Order, error) {
	rows, err := r.DB.Query(ctx, `select `+orderColumns+orderJoins+where+` order by o.created_at desc limit 100`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrdersPG) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return r.list(ctx, ` where o.customer_id = $1`, customerID)
}

func (r *OrdersPG) ListByTransporter(ctx context.Context, transporterID string) ([]models.Order, error) {
	return r.list(ctx, ` where o.transporter_id = $1`, transporterID)
}

func (r *OrdersPG) GetStatus(ctx context.Context, orderID string) (string, error) {
	var s string
	err := r.DB.QueryRow(ctx, `select status from orders where id = $1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return s, err
}

// Book persists a freshly priced order: the row, both stops, the initial
// history entry and the orders.created outbox event in one transaction.
func (r *OrdersPG) Book(ctx context.Context, o models.Order, vehicle string, quote pricing.Quote) error {
	quoteJSON, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		insert into orders(id, customer_id, service_id, status, weight_kg, distance_km, quote, total_cents)
		values ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
	`, o.ID, o.CustomerID, o.ServiceID, string(models.StatusPending), o.WeightKg, o.DistanceKm, string(quoteJSON), o.TotalCents)
	if err != nil {
		return err
	}

	for kind, stop := range map[string]models.Stop{"pickup": o.Pickup, "dropoff": o.Dropoff} {
		_, err = tx.Exec(ctx, `
			insert into order_stops(order_id, kind, address, lat, lng, contact_name, contact_phone)
			values ($1, $2, $3, $4, $5, $6, $7)
		`, o.ID, kind, stop.Address, stop.Lat, stop.Lng, stop.ContactName, stop.ContactPhone)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		insert into order_status_history(order_id, status, note) values ($1, $2, 'booked')
	`, o.ID, string(models.StatusPending))
	if err != nil {
		return err
	}

	evt := models.NewOrderCreated(o.ID, models.OrderCreatedPayload{
		CustomerID: o.CustomerID,
		ServiceID:  o.ServiceID,
		Vehicle:    vehicle,
		Pickup:     o.Pickup,
		Dropoff:    o.Dropoff,
		WeightKg:   o.WeightKg,
		DistanceKm: o.DistanceKm,
		TotalCents: o.TotalCents,
	})
	if err := r.Outbox.Enqueue(ctx, tx, evt.ID, evt.OrderID, evt.Type, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Progress moves an assigned order along the delivery lifecycle on behalf of
// its transporter. The status row, the history entry and the outbox event
// commit together.
func (r *OrdersPG) Progress(ctx context.Context, orderID, transporterID string, to models.OrderStatus) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur, assigned string
	err = tx.QueryRow(ctx, `
		select status, coalesce(transporter_id::text, '')
		from orders where id = $1 for update
	`, orderID).Scan(&cur, &assigned)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if assigned != transporterID {
		return ErrNotAssigned
	}
	if !models.CanTransition(models.OrderStatus(cur), to) {
		return ErrIllegalTransition
	}

	if err := applyStatus(ctx, tx, orderID, to, "by transporter"); err != nil {
		return err
	}

	evt := models.NewStatusChanged(orderID, transporterID, to)
	if err := r.Outbox.Enqueue(ctx, tx, evt.ID, evt.OrderID, evt.Type, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel lets the customer abort an order that has not been picked up yet.
func (r *OrdersPG) Cancel(ctx context.Context, orderID, customerID, reason string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur, owner string
	err = tx.QueryRow(ctx, `
		select status, customer_id::text
		from orders where id = $1 for update
	`, orderID).Scan(&cur, &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != customerID {
		return ErrNotOwner
	}
	switch models.OrderStatus(cur) {
	case models.StatusPending, models.StatusDriverAssigned, models.StatusConfirmed:
	default:
		return ErrNotCancellable
	}

	if err := applyStatus(ctx, tx, orderID, models.StatusCancelled, reason); err != nil {
		return err
	}

	evt := models.NewOrderCancelled(orderID, reason)
	if err := r.Outbox.Enqueue(ctx, tx, evt.ID, evt.OrderID, evt.Type, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func applyStatus(ctx context.Context, tx pgx.Tx, orderID string, to models.OrderStatus, note string) error {
	_, err := tx.Exec(ctx, `update orders set status = $2, updated_at = now() where id = $1`, orderID, string(to))
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into order_status_history(order_id, status, note) values ($1, $2, $3)
	`, orderID, string(to), note)
	return err
}
