package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor represents the subset of pgx methods required for dedup operations.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Repository remembers inbound webhook deliveries that were fully handled.
type Repository struct {
	executor Executor
}

func NewRepository(exec Executor) *Repository {
	return &Repository{executor: exec}
}

// Seen reports whether the delivery was already recorded for source.
func (r *Repository) Seen(ctx context.Context, source, deliveryID string) (bool, error) {
	var one int
	err := r.executor.QueryRow(ctx, `
		SELECT 1 FROM webhook_deliveries WHERE source = $1 AND delivery_id = $2
	`, source, deliveryID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select delivery: %w", err)
	}
	return true, nil
}

// Record stores a handled delivery. Recording the same delivery twice is a no-op.
func (r *Repository) Record(ctx context.Context, source, deliveryID, orderID, outcome string) error {
	_, err := r.executor.Exec(ctx, `
		INSERT INTO webhook_deliveries (source, delivery_id, order_id, outcome)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source, delivery_id) DO NOTHING
	`, source, deliveryID, orderID, outcome)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}
