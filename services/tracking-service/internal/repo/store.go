package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/shared/pkg/models"
)

var ErrOrderNotFound = errors.New("order not found")

type Store struct{ DB *pgxpool.Pool }

func (s *Store) OrderParties(ctx context.Context, orderID string) (string, string, models.OrderStatus, error) {
	var (
		customerID    string
		transporterID *string
		status        models.OrderStatus
	)
	err := s.DB.QueryRow(ctx, `
		select customer_id, transporter_id, status
		from orders
		where id = $1
	`, orderID).Scan(&customerID, &transporterID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", "", ErrOrderNotFound
	}
	if err != nil {
		return "", "", "", err
	}
	var tid string
	if transporterID != nil {
		tid = *transporterID
	}
	return customerID, tid, status, nil
}

func (s *Store) SaveRoutePoint(ctx context.Context, p models.RoutePoint) error {
	_, err := s.DB.Exec(ctx, `
		insert into route_points (order_id, transporter_id, lat, lng, at)
		values ($1, $2, $3, $4, $5)
	`, p.OrderID, p.TransporterID, p.Lat, p.Lng, p.At)
	return err
}

func (s *Store) SaveMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error) {
	m.ID = uuid.NewString()
	_, err := s.DB.Exec(ctx, `
		insert into messages (id, order_id, sender_id, text, at)
		values ($1, $2, $3, $4, $5)
	`, m.ID, m.OrderID, m.SenderID, m.Text, m.At)
	return m, err
}

// Route returns the persisted track for an order, oldest first.
func (s *Store) Route(ctx context.Context, orderID string) ([]models.RoutePoint, error) {
	rows, err := s.DB.Query(ctx, `
		select order_id, transporter_id, lat, lng, at
		from route_points
		where order_id = $1
		order by at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RoutePoint, 0)
	for rows.Next() {
		var p models.RoutePoint
		if err := rows.Scan(&p.OrderID, &p.TransporterID, &p.Lat, &p.Lng, &p.At); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Messages(ctx context.Context, orderID string) ([]models.ChatMessage, error) {
	rows, err := s.DB.Query(ctx, `
		select id, order_id, sender_id, text, at
		from messages
		where order_id = $1
		order by at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.SenderID, &m.Text, &m.At); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ProjectResult is what became of one status event.
type ProjectResult int

const (
	// ProjectApplied: the order now carries the status; refresh caches
	// and push to the room.
	ProjectApplied ProjectResult = iota
	// ProjectDuplicate: the event id was seen before.
	ProjectDuplicate
	// ProjectRejected: the transition table forbids the move.
	ProjectRejected
)

// ProjectStatus marks the event processed and applies the status change
// in one transaction, so a failed apply rolls the marker back and the
// redelivery gets a fresh attempt. An order already at the target status
// counts as applied: the gateway writes transporter progress and customer
// cancellation rows itself before the event arrives, and the cache
// refresh and room broadcast still have to happen for those.
func (s *Store) ProjectStatus(ctx context.Context, eventID, orderID string, status models.OrderStatus, note string) (ProjectResult, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return ProjectRejected, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `insert into processed_events(event_id) values ($1) on conflict do nothing`, eventID)
	if err != nil {
		return ProjectRejected, err
	}
	if ct.RowsAffected() == 0 {
		return ProjectDuplicate, nil
	}

	ct, err = tx.Exec(ctx, `
		update orders
		set status = $2,
		    updated_at = now()
		where id = $1
		  and status = any($3)
	`, orderID, status, models.TransitionSources(status))
	if err != nil {
		return ProjectRejected, err
	}

	if ct.RowsAffected() == 0 {
		var current models.OrderStatus
		err := tx.QueryRow(ctx, `select status from orders where id = $1`, orderID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ProjectRejected, tx.Commit(ctx)
		}
		if err != nil {
			return ProjectRejected, err
		}
		if current == status {
			// the gateway's own write got there first; history exists
			return ProjectApplied, tx.Commit(ctx)
		}
		return ProjectRejected, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		insert into order_status_history (order_id, status, note)
		values ($1, $2, $3)
	`, orderID, status, note); err != nil {
		return ProjectRejected, err
	}
	return ProjectApplied, tx.Commit(ctx)
}
