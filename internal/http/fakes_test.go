package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

type fakeCheckout struct {
	placeFunc    func(ctx context.Context, userID string, in checkout.PlaceOrderInput) (*order.Order, error)
	getFunc      func(ctx context.Context, caller auth.Principal, orderID string) (*order.Order, error)
	listFunc     func(ctx context.Context, userID string) ([]order.Order, error)
	listAllFunc  func(ctx context.Context, limit, offset int) ([]order.Order, error)
	statusFunc   func(ctx context.Context, orderID, status string) (*order.Order, error)
	initiateFunc func(ctx context.Context, caller auth.Principal, orderID string) (payment.Checkout, error)
	verifyFunc   func(ctx context.Context, caller auth.Principal, ref string) (checkout.Confirmation, error)
	webhookFunc  func(ctx context.Context, signature string, body []byte) (checkout.WebhookResult, error)
}

func (f *fakeCheckout) PlaceOrder(ctx context.Context, userID string, in checkout.PlaceOrderInput) (*order.Order, error) {
	if f.placeFunc != nil {
		return f.placeFunc(ctx, userID, in)
	}
	return &order.Order{}, nil
}

func (f *fakeCheckout) GetOrder(ctx context.Context, caller auth.Principal, orderID string) (*order.Order, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, caller, orderID)
	}
	return &order.Order{ID: orderID}, nil
}

func (f *fakeCheckout) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, userID)
	}
	return []order.Order{}, nil
}

func (f *fakeCheckout) ListAllOrders(ctx context.Context, limit, offset int) ([]order.Order, error) {
	if f.listAllFunc != nil {
		return f.listAllFunc(ctx, limit, offset)
	}
	return []order.Order{}, nil
}

func (f *fakeCheckout) UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	if f.statusFunc != nil {
		return f.statusFunc(ctx, orderID, status)
	}
	return &order.Order{ID: orderID}, nil
}

func (f *fakeCheckout) InitiatePayment(ctx context.Context, caller auth.Principal, orderID string) (payment.Checkout, error) {
	if f.initiateFunc != nil {
		return f.initiateFunc(ctx, caller, orderID)
	}
	return payment.Checkout{}, nil
}

func (f *fakeCheckout) VerifyPayment(ctx context.Context, caller auth.Principal, ref string) (checkout.Confirmation, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, caller, ref)
	}
	return checkout.Confirmation{}, nil
}

func (f *fakeCheckout) HandleWebhook(ctx context.Context, signature string, body []byte) (checkout.WebhookResult, error) {
	if f.webhookFunc != nil {
		return f.webhookFunc(ctx, signature, body)
	}
	return checkout.WebhookResult{}, nil
}

type fakeCart struct {
	getFunc    func(ctx context.Context, userID string) (*cart.Cart, error)
	addFunc    func(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	updateFunc func(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	removeFunc func(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	clearFunc  func(ctx context.Context, userID string) (*cart.Cart, error)
}

func (f *fakeCart) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, userID)
	}
	return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
}

func (f *fakeCart) AddItem(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error) {
	if f.addFunc != nil {
		return f.addFunc(ctx, userID, in)
	}
	return &cart.Cart{UserID: userID}, nil
}

func (f *fakeCart) UpdateQuantity(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error) {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, userID, in)
	}
	return &cart.Cart{UserID: userID}, nil
}

func (f *fakeCart) RemoveItem(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error) {
	if f.removeFunc != nil {
		return f.removeFunc(ctx, userID, in)
	}
	return &cart.Cart{UserID: userID}, nil
}

func (f *fakeCart) Clear(ctx context.Context, userID string) (*cart.Cart, error) {
	if f.clearFunc != nil {
		return f.clearFunc(ctx, userID)
	}
	return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
}

const testJWTSecret = "test-secret"

func newTestRouter(co *fakeCheckout, c *fakeCart) http.Handler {
	if co == nil {
		co = &fakeCheckout{}
	}
	if c == nil {
		c = &fakeCart{}
	}
	return NewRouter(Deps{
		Logger:           zerolog.Nop(),
		Cart:             c,
		Checkout:         co,
		Verifier:         auth.NewVerifier(testJWTSecret),
		CORSAllowOrigins: []string{"*"},
	})
}

func token(t *testing.T, userID string, role user.Role) string {
	t.Helper()
	tok, err := auth.NewVerifier(testJWTSecret).Sign(auth.Principal{UserID: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, h http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
