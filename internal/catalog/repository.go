package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
)

// Reader is the read-only catalog view the cart needs to snapshot line items.
type Reader interface {
	GetByID(ctx context.Context, productID string) (*Product, error)
}

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns nil, nil when the product does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, images, stock FROM products WHERE id = $1`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Images, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}
