package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http/middleware"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

const (
	webhookSource    = "flutterwave"
	sideEffectBudget = 10 * time.Second
)

type TotalsPolicy string

const (
	// TotalsVerify rejects orders whose declared total differs from items + tax + shipping.
	TotalsVerify TotalsPolicy = "verify"
	// TotalsTrust stores the client-declared totals as given.
	TotalsTrust TotalsPolicy = "trust"
)

type Users interface {
	GetByID(ctx context.Context, userID string) (*user.User, error)
}

type Notifier interface {
	OrderPlaced(ctx context.Context, u user.User, o *order.Order) error
	PaymentConfirmed(ctx context.Context, u user.User, o *order.Order) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order, meta events.EnvelopeMetadata) error
	PublishOrderPaid(ctx context.Context, o *order.Order, meta events.EnvelopeMetadata) error
}

// Deliveries records webhook deliveries that were fully handled.
type Deliveries interface {
	Seen(ctx context.Context, source, deliveryID string) (bool, error)
	Record(ctx context.Context, source, deliveryID, orderID, outcome string) error
}

type Config struct {
	Currency       string
	TotalsPolicy   TotalsPolicy
	FrontendURL    string
	StoreName      string
	GatewayTimeout time.Duration
	WebhookSecret  string
}

type Deps struct {
	Orders     order.Repository
	Users      Users
	Gateway    payment.Gateway
	Notifier   Notifier
	Events     EventPublisher
	Deliveries Deliveries
	Logger     zerolog.Logger
}

// Engine owns order placement and payment reconciliation.
type Engine struct {
	orders     order.Repository
	users      Users
	gateway    payment.Gateway
	notifier   Notifier
	events     EventPublisher
	deliveries Deliveries
	cfg        Config
	logger     zerolog.Logger

	now      func() time.Time
	dispatch func(func())
	wg       sync.WaitGroup
}

func NewEngine(d Deps, cfg Config) *Engine {
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	if cfg.TotalsPolicy == "" {
		cfg.TotalsPolicy = TotalsVerify
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	if d.Events == nil {
		d.Events = events.Discard{}
	}

	e := &Engine{
		orders:     d.Orders,
		users:      d.Users,
		gateway:    d.Gateway,
		notifier:   d.Notifier,
		events:     d.Events,
		deliveries: d.Deliveries,
		cfg:        cfg,
		logger:     d.Logger.With().Str("component", "checkout").Logger(),
		now:        time.Now,
	}
	e.dispatch = e.goTracked
	return e
}

// Wait blocks until in-flight notifications and event publishes have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) goTracked(f func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		f()
	}()
}

// afterCommit runs side effects that must not fail or delay the committed operation.
func (e *Engine) afterCommit(ctx context.Context, f func(ctx context.Context)) {
	bg := context.WithoutCancel(ctx)
	e.dispatch(func() {
		ctx, cancel := context.WithTimeout(bg, sideEffectBudget)
		defer cancel()
		f(ctx)
	})
}

func (e *Engine) notifyOrderPlaced(ctx context.Context, o *order.Order) {
	logger := e.logger.With().Str("order_id", o.ID).Logger()

	if u := e.lookupUser(ctx, o.UserID, logger); u != nil && e.notifier != nil {
		if err := e.notifier.OrderPlaced(ctx, *u, o); err != nil {
			logger.Warn().Err(err).Msg("order confirmation email failed")
		}
	}
	if err := e.events.PublishOrderCreated(ctx, o, metadata(ctx)); err != nil {
		logger.Warn().Err(err).Msg("publish order.created failed")
	}
}

func (e *Engine) notifyOrderPaid(ctx context.Context, o *order.Order) {
	logger := e.logger.With().Str("order_id", o.ID).Logger()

	if u := e.lookupUser(ctx, o.UserID, logger); u != nil && e.notifier != nil {
		if err := e.notifier.PaymentConfirmed(ctx, *u, o); err != nil {
			logger.Warn().Err(err).Msg("payment confirmation email failed")
		}
	}
	if err := e.events.PublishOrderPaid(ctx, o, metadata(ctx)); err != nil {
		logger.Warn().Err(err).Msg("publish order.paid failed")
	}
}

func (e *Engine) lookupUser(ctx context.Context, userID string, logger zerolog.Logger) *user.User {
	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("load user for notification")
		return nil
	}
	if u == nil {
		logger.Warn().Str("user_id", userID).Msg("order owner not found, skipping notification")
	}
	return u
}

func metadata(ctx context.Context) events.EnvelopeMetadata {
	return events.EnvelopeMetadata{CorrelationID: middleware.GetCorrelationID(ctx)}
}

// frontendBase returns the first of a comma separated list of frontend origins.
func (e *Engine) frontendBase() string {
	first, _, _ := strings.Cut(e.cfg.FrontendURL, ",")
	return strings.TrimRight(strings.TrimSpace(first), "/")
}
