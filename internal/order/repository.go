package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
)

type Repository interface {
	// CreateAndReleaseCart persists a new order and deletes the owner's cart atomically.
	CreateAndReleaseCart(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	// MarkPaid applies the pending -> processing transition only if the order is still
	// unpaid and pending. It reports whether this call performed the transition.
	MarkPaid(ctx context.Context, orderID string, result PaymentResult, paidAt time.Time) (bool, error)
	// UpdateStatus moves an order from one status to another if it is still in from.
	UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error)
}

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `id, user_id, ship_address, ship_city, ship_postal_code, ship_country,
	payment_method, tax_price, shipping_price, total_price, currency, status,
	is_paid, paid_at, is_delivered, delivered_at,
	payment_id, payment_reference, payment_status, payment_channel, payment_amount,
	payment_currency, payment_email, payment_gateway_time, created_at, updated_at`

func (r *PostgresRepository) CreateAndReleaseCart(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, ship_address, ship_city, ship_postal_code, ship_country,
			payment_method, tax_price, shipping_price, total_price, currency, status, is_paid,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13, $13)`,
		o.ID, o.UserID, o.ShippingAddress.Address, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country, o.PaymentMethod,
		o.TaxPrice, o.ShippingPrice, o.TotalPrice, o.Currency, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, name, images, price,
				selected_size, selected_colors, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), o.ID, i, it.ProductID, it.Name, nonNil(it.Images), it.Price,
			it.SelectedSize, nonNil(it.SelectedColors), it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, o.UserID); err != nil {
		return fmt.Errorf("release cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the order does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	orders := []Order{*o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID string, res PaymentResult, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			is_paid = TRUE,
			paid_at = $2,
			status = 'processing',
			payment_id = $3,
			payment_reference = $4,
			payment_status = $5,
			payment_channel = $6,
			payment_amount = $7,
			payment_currency = $8,
			payment_email = $9,
			payment_gateway_time = $10,
			updated_at = $2
		WHERE id = $1 AND is_paid = FALSE AND status = 'pending'`,
		orderID, paidAt, res.ID, res.Reference, res.Status, res.Channel, res.Amount,
		res.Currency, res.Email, res.GatewayTime,
	)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			status = $3,
			is_delivered = is_delivered OR $3 = 'delivered',
			delivered_at = CASE WHEN $3 = 'delivered' THEN $4 ELSE delivered_at END,
			updated_at = $4
		WHERE id = $1 AND status = $2`,
		orderID, string(from), string(to), at,
	)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fetches the items of every order in one round trip.
func (r *PostgresRepository) loadItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []Item{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, name, images, price, selected_size, selected_colors, quantity
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Images, &it.Price,
			&it.SelectedSize, &it.SelectedColors, &it.Quantity); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o             Order
		status        string
		res           PaymentResult
		paymentAmount decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.ShippingAddress.Address, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice, &o.Currency, &status,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&res.ID, &res.Reference, &res.Status, &res.Channel, &paymentAmount,
		&res.Currency, &res.Email, &res.GatewayTime, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.Status, err = ParseStatus(status); err != nil {
		return nil, err
	}
	if o.IsPaid {
		res.Amount = paymentAmount.Decimal
		o.PaymentResult = &res
	}
	return &o, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
