package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

// fakeOrders keeps orders and carts in memory and mimics the conditional paid update.
type fakeOrders struct {
	mu        sync.Mutex
	orders    map[string]order.Order
	carts     map[string]bool
	calls     int
	createErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]order.Order{}, carts: map[string]bool{}}
}

func (f *fakeOrders) CreateAndReleaseCart(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	f.orders[o.ID] = *o
	delete(f.carts, o.UserID)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []order.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListAll(_ context.Context, limit, offset int) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []order.Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id string, res order.PaymentResult, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	o, ok := f.orders[id]
	if !ok || o.IsPaid || o.Status != order.StatusPending {
		return false, nil
	}
	o.IsPaid = true
	o.PaidAt = &paidAt
	o.Status = order.StatusProcessing
	o.PaymentResult = &res
	o.UpdatedAt = paidAt
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, from, to order.Status, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if to == order.StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &at
	}
	o.UpdatedAt = at
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrders) get(id string) order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeUsers map[string]user.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	txs       map[string]payment.Transaction
	err       error
	verifies  int
	initiated []payment.InitiateRequest
}

func (g *fakeGateway) Initiate(_ context.Context, req payment.InitiateRequest) (payment.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return payment.Checkout{}, g.err
	}
	g.initiated = append(g.initiated, req)
	return payment.Checkout{Reference: req.Reference, Link: "https://checkout.example/pay/" + req.Reference}, nil
}

func (g *fakeGateway) VerifyByReference(_ context.Context, ref string) (payment.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifies++
	if g.err != nil {
		return payment.Transaction{}, g.err
	}
	tx, ok := g.txs[ref]
	if !ok {
		return payment.Transaction{}, errors.New("no transaction was found")
	}
	return tx, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	placed []string
	paid   []string
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, _ user.User, o *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, o.ID)
	return nil
}

func (n *fakeNotifier) PaymentConfirmed(_ context.Context, _ user.User, o *order.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, o.ID)
	return nil
}

func (n *fakeNotifier) paidCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paid)
}

type fakePublisher struct {
	mu      sync.Mutex
	created []string
	paid    []string
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, o *order.Order, _ events.EnvelopeMetadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, o.ID)
	return nil
}

func (p *fakePublisher) PublishOrderPaid(_ context.Context, o *order.Order, _ events.EnvelopeMetadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, o.ID)
	return nil
}

type fakeDeliveries struct {
	mu   sync.Mutex
	seen map[string]string
}

func (d *fakeDeliveries) Seen(_ context.Context, source, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[source+"/"+id]
	return ok, nil
}

func (d *fakeDeliveries) Record(_ context.Context, source, id, _ string, outcome string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[source+"/"+id] = outcome
	return nil
}

const webhookSecret = "whsec-test"

type harness struct {
	engine     *Engine
	orders     *fakeOrders
	gateway    *fakeGateway
	notifier   *fakeNotifier
	publisher  *fakePublisher
	deliveries *fakeDeliveries
}

func newHarness() *harness {
	h := &harness{
		orders:     newFakeOrders(),
		gateway:    &fakeGateway{txs: map[string]payment.Transaction{}},
		notifier:   &fakeNotifier{},
		publisher:  &fakePublisher{},
		deliveries: &fakeDeliveries{seen: map[string]string{}},
	}
	h.engine = NewEngine(Deps{
		Orders:     h.orders,
		Users:      fakeUsers{"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com", Role: user.RoleCustomer}},
		Gateway:    h.gateway,
		Notifier:   h.notifier,
		Events:     h.publisher,
		Deliveries: h.deliveries,
		Logger:     zerolog.Nop(),
	}, Config{
		Currency:       "NGN",
		FrontendURL:    "https://souk.example,https://admin.souk.example",
		StoreName:      "Souk Couture",
		GatewayTimeout: time.Second,
		WebhookSecret:  webhookSecret,
	})
	h.engine.dispatch = func(f func()) { f() }
	return h
}

// seedPending stores a pending order for u1 with total 200 NGN.
func (h *harness) seedPending(id string) {
	now := time.Now().UTC()
	h.orders.orders[id] = order.Order{
		ID:     id,
		UserID: "u1",
		Items: []order.Item{
			{ProductID: "P1", Name: "Agbada", Price: decimal.NewFromInt(100), SelectedSize: "M", SelectedColors: []string{"black"}, Quantity: 2},
		},
		ShippingAddress: order.ShippingAddress{Address: "1 Marina", City: "Lagos", PostalCode: "100001", Country: "NG"},
		PaymentMethod:   "Flutterwave",
		TotalPrice:      decimal.NewFromInt(200),
		Currency:        "NGN",
		Status:          order.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func successfulTx(ref, orderID string, amount int64) payment.Transaction {
	return payment.Transaction{
		ID:         "4567",
		Reference:  ref,
		Status:     payment.StatusSuccessful,
		Amount:     decimal.NewFromInt(amount),
		Currency:   "NGN",
		Channel:    "card",
		PayerEmail: "ada@example.com",
		Meta:       payment.Meta{OrderID: orderID},
	}
}
