package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, userID string) (*User, error)
}

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns nil, nil when the user does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	var (
		u    User
		role string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, role FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Name, &u.Email, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	if u.Role, err = ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	return &u, nil
}
