//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

// stubGateway reports every reference as a successful payment of amount.
type stubGateway struct {
	mu     sync.Mutex
	calls  int
	amount decimal.Decimal
	order  string
}

func (g *stubGateway) Initiate(_ context.Context, req payment.InitiateRequest) (payment.Checkout, error) {
	return payment.Checkout{Reference: req.Reference, Link: "https://checkout.test/" + req.Reference}, nil
}

func (g *stubGateway) VerifyByReference(_ context.Context, ref string) (payment.Transaction, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return payment.Transaction{
		ID:        "flw-1",
		Reference: ref,
		Status:    payment.StatusSuccessful,
		Amount:    g.amount,
		Currency:  "NGN",
		Channel:   "card",
		Meta:      payment.Meta{OrderID: g.order},
	}, nil
}

type countingNotifier struct {
	mu     sync.Mutex
	placed int
	paid   int
}

func (n *countingNotifier) OrderPlaced(context.Context, user.User, *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed++
	return nil
}

func (n *countingNotifier) PaymentConfirmed(context.Context, user.User, *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid++
	return nil
}

func (n *countingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.placed, n.paid
}

func seedUser(t *testing.T, pool *pgxpool.Pool, id, email string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, 'customer')`, id, "Ada", email)
	require.NoError(t, err)
}

func seedCart(t *testing.T, pool *pgxpool.Pool, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO carts (id, user_id) VALUES ($1, $2)`, "cart-"+userID, userID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, position, product_id, name, price, selected_size, quantity)
		VALUES ($1, $2, 0, 'p1', 'Shirt', 50, 'M', 2)`, "ci-"+userID, "cart-"+userID)
	require.NoError(t, err)
}

func pendingOrder(userID string) *order.Order {
	return &order.Order{
		UserID: userID,
		Items: []order.Item{{
			ProductID: "p1", Name: "Shirt", Price: decimal.NewFromInt(50),
			SelectedSize: "M", SelectedColors: []string{"red"}, Quantity: 2,
		}},
		ShippingAddress: order.ShippingAddress{Address: "1 Marina", City: "Lagos", PostalCode: "100001", Country: "NG"},
		PaymentMethod:   "flutterwave",
		TaxPrice:        decimal.Zero,
		ShippingPrice:   decimal.Zero,
		TotalPrice:      decimal.NewFromInt(100),
		Currency:        "NGN",
		Status:          order.StatusPending,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}
