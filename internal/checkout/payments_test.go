package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

var customer = auth.Principal{UserID: "u1", Role: user.RoleCustomer}

func TestVerifyPayment_AppliesOnceAndIsIdempotent(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	h.gateway.txs["TX1"] = successfulTx("TX1", "o1", 200)

	first, err := h.engine.VerifyPayment(context.Background(), customer, "TX1")
	require.NoError(t, err)
	assert.False(t, first.AlreadyPaid)
	assert.True(t, first.Order.IsPaid)
	assert.Equal(t, order.StatusProcessing, first.Order.Status)
	require.NotNil(t, first.Order.PaidAt)
	require.NotNil(t, first.Order.PaymentResult)
	assert.Equal(t, "TX1", first.Order.PaymentResult.Reference)

	stored := h.orders.get("o1")
	paidAt := *stored.PaidAt

	second, err := h.engine.VerifyPayment(context.Background(), customer, "TX1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyPaid)
	assert.Equal(t, paidAt, *h.orders.get("o1").PaidAt)
	assert.Equal(t, 1, h.notifier.paidCount(), "no second email")
	assert.Equal(t, []string{"o1"}, h.publisher.paid)
}

func TestVerifyPayment_MintedReferenceResolvesOrder(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	ref := "SOUK_o1_1700000000000"
	h.gateway.txs[ref] = successfulTx(ref, "o1", 200)

	c, err := h.engine.VerifyPayment(context.Background(), customer, ref)
	require.NoError(t, err)
	assert.True(t, c.Order.IsPaid)
	assert.Equal(t, 1, h.gateway.verifies)
}

func TestVerifyPayment_AlreadyPaidSkipsGateway(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	ref := "SOUK_o1_1700000000000"
	h.gateway.txs[ref] = successfulTx(ref, "o1", 200)

	_, err := h.engine.VerifyPayment(context.Background(), customer, ref)
	require.NoError(t, err)

	h.gateway.err = errors.New("gateway down")
	c, err := h.engine.VerifyPayment(context.Background(), customer, ref)
	require.NoError(t, err)
	assert.True(t, c.AlreadyPaid)
	assert.Equal(t, 1, h.gateway.verifies)
}

func TestVerifyPayment_AmountMismatchLeavesOrderUntouched(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	h.gateway.txs["TX1"] = successfulTx("TX1", "o1", 150)

	_, err := h.engine.VerifyPayment(context.Background(), customer, "TX1")
	require.ErrorIs(t, err, ErrAmountMismatch)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindIntegrity, ce.Kind)
	assert.Equal(t, "payment could not be confirmed", ce.Msg)

	stored := h.orders.get("o1")
	assert.False(t, stored.IsPaid)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Nil(t, stored.PaidAt)
	assert.Zero(t, h.notifier.paidCount())
}

func TestVerifyPayment_CurrencyMismatch(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	tx := successfulTx("TX1", "o1", 200)
	tx.Currency = "USD"
	h.gateway.txs["TX1"] = tx

	_, err := h.engine.VerifyPayment(context.Background(), customer, "TX1")
	require.ErrorIs(t, err, ErrAmountMismatch)
	assert.False(t, h.orders.get("o1").IsPaid)
}

func TestVerifyPayment_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		caller  auth.Principal
		ref     string
		wantErr error
	}{
		{
			name:    "gateway unavailable",
			setup:   func(h *harness) { h.gateway.err = payment.ErrUpstream },
			ref:     "SOUK_o1_1",
			wantErr: ErrGatewayVerification,
		},
		{
			name: "not successful",
			setup: func(h *harness) {
				tx := successfulTx("SOUK_o1_1", "o1", 200)
				tx.Status = "failed"
				h.gateway.txs["SOUK_o1_1"] = tx
			},
			ref:     "SOUK_o1_1",
			wantErr: ErrPaymentNotSuccessful,
		},
		{
			name:    "not owner",
			setup:   func(h *harness) {},
			caller:  auth.Principal{UserID: "u2", Role: user.RoleCustomer},
			ref:     "SOUK_o1_1",
			wantErr: ErrNotOwner,
		},
		{
			name:    "unknown order",
			setup:   func(h *harness) {},
			ref:     "SOUK_missing_1",
			wantErr: ErrOrderNotFound,
		},
		{
			name:    "foreign reference without metadata",
			setup:   func(h *harness) { h.gateway.txs["TX9"] = successfulTx("TX9", "", 200) },
			ref:     "TX9",
			wantErr: ErrInvalidReference,
		},
		{
			name:    "transaction for another order",
			setup:   func(h *harness) { h.gateway.txs["SOUK_o1_1"] = successfulTx("SOUK_o1_1", "o2", 200) },
			ref:     "SOUK_o1_1",
			wantErr: ErrOrderMismatch,
		},
		{
			name: "cancelled order",
			setup: func(h *harness) {
				o := h.orders.orders["o1"]
				o.Status = order.StatusCancelled
				h.orders.orders["o1"] = o
			},
			ref:     "SOUK_o1_1",
			wantErr: ErrNotPayable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.seedPending("o1")
			tt.setup(h)

			caller := tt.caller
			if caller.UserID == "" {
				caller = customer
			}
			_, err := h.engine.VerifyPayment(context.Background(), caller, tt.ref)
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, h.orders.get("o1").IsPaid)
		})
	}
}

func TestVerifyPayment_LostRaceIsNoOp(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	h.gateway.txs["SOUK_o1_1"] = successfulTx("SOUK_o1_1", "o1", 200)

	// another signal lands between our read and our conditional update
	racing := &racingOrders{fakeOrders: h.orders}
	h.engine.orders = racing

	c, err := h.engine.VerifyPayment(context.Background(), customer, "SOUK_o1_1")
	require.NoError(t, err)
	assert.True(t, c.AlreadyPaid)
	assert.Zero(t, h.notifier.paidCount())
}

type racingOrders struct {
	*fakeOrders
	once sync.Once
}

func (r *racingOrders) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := r.fakeOrders.GetByID(ctx, id)
	r.once.Do(func() {
		_, _ = r.fakeOrders.MarkPaid(ctx, id, order.PaymentResult{Reference: "other"}, o.CreatedAt)
	})
	return o, err
}

func TestVerifyPayment_ConcurrentSignalsNotifyOnce(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")
	h.gateway.txs["SOUK_o1_1"] = successfulTx("SOUK_o1_1", "o1", 200)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.engine.VerifyPayment(context.Background(), customer, "SOUK_o1_1")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.notifier.paidCount())
}

func TestInitiatePayment(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")

	co, err := h.engine.InitiatePayment(context.Background(), customer, "o1")
	require.NoError(t, err)
	assert.NotEmpty(t, co.Link)

	require.Len(t, h.gateway.initiated, 1)
	req := h.gateway.initiated[0]
	id, err := payment.OrderIDFromReference(req.Reference)
	require.NoError(t, err)
	assert.Equal(t, "o1", id)
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "NGN", req.Currency)
	assert.Equal(t, "ada@example.com", req.Customer.Email)
	assert.Equal(t, "o1", req.Meta.OrderID)
	assert.Contains(t, req.RedirectURL, "https://souk.example/order/o1/payment-success?tx_ref=SOUK_o1_")
}

func TestInitiatePayment_Failures(t *testing.T) {
	h := newHarness()
	h.seedPending("o1")

	_, err := h.engine.InitiatePayment(context.Background(), auth.Principal{UserID: "u2", Role: user.RoleAdmin}, "o1")
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = h.engine.InitiatePayment(context.Background(), customer, "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	h.gateway.err = errors.New("timeout")
	_, err = h.engine.InitiatePayment(context.Background(), customer, "o1")
	assert.ErrorIs(t, err, ErrGatewayVerification)

	o := h.orders.orders["o1"]
	o.IsPaid = true
	h.orders.orders["o1"] = o
	_, err = h.engine.InitiatePayment(context.Background(), customer, "o1")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}
