package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-order-system/shared/pkg/models"
)

type UsersPG struct{ DB *pgxpool.Pool }

// Create inserts the user and, for transporters, the driver profile in one
// transaction. vehicleType is ignored for customers.
func (r *UsersPG) Create(ctx context.Context, u models.User, passwordHash, vehicleType string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		insert into users(id, name, email, phone, role, password_hash)
		values ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Name, u.Email, u.Phone, string(u.Role), passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}

	if u.Role == models.RoleTransporter {
		_, err = tx.Exec(ctx, `
			insert into transporter_profiles(user_id, vehicle_type)
			values ($1, $2)
		`, u.ID, vehicleType)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *UsersPG) GetByEmail(ctx context.Context, email string) (models.User, string, error) {
	var u models.User
	var role, hash string
	err := r.DB.QueryRow(ctx, `
		select id, name, email, phone, role, password_hash, created_at
		from users where email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, "", ErrNotFound
	}
	if err != nil {
		return models.User{}, "", err
	}
	u.Role = models.Role(role)
	return u, hash, nil
}

func (r *UsersPG) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	var role string
	err := r.DB.QueryRow(ctx, `
		select id, name, email, phone, role, created_at
		from users where id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// UpdateLocation stores the transporter's last reported position and
// availability for dispatch.
func (r *UsersPG) UpdateLocation(ctx context.Context, userID string, lat, lng float64, available bool) error {
	ct, err := r.DB.Exec(ctx, `
		update transporter_profiles
		set lat = $2, lng = $3, available = $4, updated_at = now()
		where user_id = $1
	`, userID, lat, lng, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
