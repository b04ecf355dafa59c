package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
)

type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	SaveCart(ctx context.Context, c *Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetCart returns nil, nil when the user has no cart; the handler decides what that means.
func (r *PostgresRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, images, price, selected_size, selected_colors, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	c.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Images, &it.Price,
			&it.SelectedSize, &it.SelectedColors, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &c, nil
}

// SaveCart upserts the cart row and rewrites its items in one transaction.
func (r *PostgresRepository) SaveCart(ctx context.Context, c *Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id, created_at, updated_at`,
		c.ID, c.UserID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}

	for i, it := range c.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, position, product_id, name, images, price, selected_size, selected_colors, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), c.ID, i, it.ProductID, it.Name, nonNil(it.Images), it.Price,
			it.SelectedSize, nonNil(it.SelectedColors), it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert cart_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteCart removes the cart document entirely; items cascade.
func (r *PostgresRepository) DeleteCart(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
