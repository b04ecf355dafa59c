package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
)

const (
	ChannelVerify  = "verify"
	ChannelWebhook = "webhook"
)

// Confirmation is the outcome of a successful payment signal. AlreadyPaid marks the
// no-op path where an earlier signal had applied the payment.
type Confirmation struct {
	Order       *order.Order
	AlreadyPaid bool
}

// WebhookResult tells the transport what happened to an authenticated delivery.
type WebhookResult struct {
	Event     string
	OrderID   string
	Outcome   string
	Duplicate bool
}

type signal struct {
	channel   string
	reference string
	orderID   string
	callerID  string
	// tx is set when the gateway was already asked, to resolve the order id.
	tx *payment.Transaction
}

// InitiatePayment opens a hosted checkout for an unpaid order owned by the caller.
func (e *Engine) InitiatePayment(ctx context.Context, caller auth.Principal, orderID string) (payment.Checkout, error) {
	const op = "initiate payment"

	o, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return payment.Checkout{}, err
	}
	if o == nil {
		return payment.Checkout{}, fail(op, ErrOrderNotFound, nil)
	}
	if o.UserID != caller.UserID {
		return payment.Checkout{}, fail(op, ErrNotOwner, nil)
	}
	if o.IsPaid {
		return payment.Checkout{}, fail(op, ErrAlreadyPaid, nil)
	}
	if o.Status != order.StatusPending {
		return payment.Checkout{}, fail(op, ErrNotPayable, nil)
	}

	u, err := e.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return payment.Checkout{}, err
	}
	if u == nil {
		return payment.Checkout{}, fail(op, ErrUserNotFound, nil)
	}

	ref := payment.NewReference(o.ID, e.now())
	redirect := fmt.Sprintf("%s/order/%s/payment-success?tx_ref=%s", e.frontendBase(), o.ID, url.QueryEscape(ref))

	gctx, cancel := context.WithTimeout(ctx, e.cfg.GatewayTimeout)
	defer cancel()

	co, err := e.gateway.Initiate(gctx, payment.InitiateRequest{
		Reference:   ref,
		Amount:      o.TotalPrice,
		Currency:    e.cfg.Currency,
		RedirectURL: redirect,
		Customer:    payment.Customer{Email: u.Email, Name: u.Name},
		Title:       e.cfg.StoreName + " Payment",
		Description: "Payment for Order " + o.ID,
		Meta:        payment.Meta{OrderID: o.ID, UserID: u.ID},
	})
	if err != nil {
		e.logger.Error().Err(err).Str("order_id", o.ID).Msg("gateway initiate failed")
		return payment.Checkout{}, fail(op, ErrGatewayVerification, err)
	}

	e.logger.Info().Str("order_id", o.ID).Str("reference", ref).Msg("payment initiated")
	return co, nil
}

// VerifyPayment reconciles the client's return from the hosted checkout.
func (e *Engine) VerifyPayment(ctx context.Context, caller auth.Principal, reference string) (Confirmation, error) {
	const op = "verify payment"

	if reference == "" {
		return Confirmation{}, fail(op, ErrInvalidReference, nil)
	}

	sig := signal{channel: ChannelVerify, reference: reference, callerID: caller.UserID}

	orderID, err := payment.OrderIDFromReference(reference)
	if err != nil {
		// Not minted here; the gateway's metadata is the only way to find the order.
		tx, err := e.verifyWithGateway(ctx, op, reference)
		if err != nil {
			return Confirmation{}, err
		}
		if tx.Meta.OrderID == "" {
			return Confirmation{}, fail(op, ErrInvalidReference, nil)
		}
		orderID = tx.Meta.OrderID
		sig.tx = &tx
	}
	sig.orderID = orderID

	return e.confirm(ctx, op, sig)
}

// HandleWebhook authenticates and processes one gateway callback. The signature is checked
// before the body is decoded or any storage is touched.
func (e *Engine) HandleWebhook(ctx context.Context, signature string, body []byte) (WebhookResult, error) {
	const op = "payment webhook"

	if !payment.VerifySignature(signature, e.cfg.WebhookSecret) {
		e.logger.Warn().Bool("signature_present", signature != "").Msg("webhook signature rejected")
		return WebhookResult{}, fail(op, ErrInvalidSignature, nil)
	}

	ev, err := payment.ParseWebhookEvent(body)
	if err != nil {
		return WebhookResult{}, fail(op, ErrInvalidWebhook, err)
	}

	res := WebhookResult{Event: ev.Type}
	deliveryID := ev.DeliveryID()
	logger := e.logger.With().Str("event", ev.Type).Str("delivery_id", deliveryID).Str("reference", ev.Data.Reference).Logger()

	if deliveryID == "" {
		logger.Info().Msg("webhook without transaction id, skipping replay check")
	} else if seen, err := e.deliveries.Seen(ctx, webhookSource, deliveryID); err != nil {
		logger.Warn().Err(err).Msg("delivery lookup failed, processing anyway")
	} else if seen {
		logger.Info().Msg("duplicate webhook delivery")
		res.Outcome = "duplicate"
		res.Duplicate = true
		return res, nil
	}

	switch ev.Type {
	case payment.EventChargeCompleted:
		orderID := ev.Data.Meta.OrderID
		if orderID == "" {
			orderID, _ = payment.OrderIDFromReference(ev.Data.Reference)
		}
		if orderID == "" || ev.Data.Reference == "" {
			logger.Error().Msg("webhook without order id or reference")
			return res, fail(op, ErrInvalidWebhook, errors.New("order id or tx_ref missing"))
		}
		res.OrderID = orderID

		c, err := e.confirm(ctx, op, signal{channel: ChannelWebhook, reference: ev.Data.Reference, orderID: orderID})
		switch {
		case errors.Is(err, ErrPaymentNotSuccessful):
			// A declined charge is final; acknowledge it so the gateway stops retrying.
			logger.Info().Str("status", ev.Data.Status).Msg("charge completed without success")
			res.Outcome = "not_successful"
		case err != nil:
			return res, err
		case c.AlreadyPaid:
			res.Outcome = "already_paid"
		default:
			res.Outcome = "paid"
		}

	case payment.EventChargeFailed:
		logger.Info().
			Str("status", ev.Data.Status).
			Str("processor_response", ev.Data.ProcessorResponse).
			Msg("payment failed at gateway")
		res.Outcome = "logged"

	case payment.EventDispute:
		logger.Warn().Msg("payment dispute received")
		res.Outcome = "logged"

	default:
		logger.Info().Msg("unhandled webhook event type")
		res.Outcome = "ignored"
	}

	if deliveryID != "" {
		if err := e.deliveries.Record(ctx, webhookSource, deliveryID, res.OrderID, res.Outcome); err != nil {
			logger.Warn().Err(err).Msg("record webhook delivery")
		}
	}
	return res, nil
}

// confirm applies a payment signal to its order at most once.
func (e *Engine) confirm(ctx context.Context, op string, sig signal) (Confirmation, error) {
	logger := e.logger.With().
		Str("order_id", sig.orderID).
		Str("reference", sig.reference).
		Str("channel", sig.channel).
		Logger()

	o, err := e.orders.GetByID(ctx, sig.orderID)
	if err != nil {
		return Confirmation{}, err
	}
	if o == nil {
		logger.Warn().Msg("payment signal for unknown order")
		return Confirmation{}, fail(op, ErrOrderNotFound, nil)
	}
	if sig.callerID != "" && o.UserID != sig.callerID {
		return Confirmation{}, fail(op, ErrNotOwner, nil)
	}
	if o.IsPaid {
		logger.Info().Msg("order already paid, nothing to do")
		return Confirmation{Order: o, AlreadyPaid: true}, nil
	}
	if o.Status != order.StatusPending {
		return Confirmation{}, fail(op, ErrNotPayable, fmt.Errorf("order status %s", o.Status))
	}

	var tx payment.Transaction
	if sig.tx != nil {
		tx = *sig.tx
	} else if tx, err = e.verifyWithGateway(ctx, op, sig.reference); err != nil {
		return Confirmation{}, err
	}

	if !tx.Successful() {
		logger.Info().Str("gateway_status", tx.Status).Msg("gateway reports payment not successful")
		return Confirmation{}, failf(op, ErrPaymentNotSuccessful, "payment not successful: %s", tx.Status)
	}
	if (tx.Meta.OrderID != "" && tx.Meta.OrderID != o.ID) || (tx.Reference != "" && tx.Reference != sig.reference) {
		suspectedFraud(logger, o, tx).Str("gateway_order_id", tx.Meta.OrderID).Msg("gateway transaction belongs to another order")
		return Confirmation{}, fail(op, ErrOrderMismatch, nil)
	}
	if !tx.Amount.Equal(o.TotalPrice) || tx.Currency != e.cfg.Currency {
		suspectedFraud(logger, o, tx).Str("expected_currency", e.cfg.Currency).Msg("payment amount or currency mismatch")
		return Confirmation{}, fail(op, ErrAmountMismatch, nil)
	}

	paidAt := e.now().UTC()
	result := order.PaymentResult{
		ID:          tx.ID,
		Reference:   sig.reference,
		Status:      tx.Status,
		Channel:     tx.Channel,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Email:       tx.PayerEmail,
		GatewayTime: tx.CreatedAt,
	}

	applied, err := e.orders.MarkPaid(ctx, o.ID, result, paidAt)
	if err != nil {
		logger.Error().Err(err).Msg("mark order paid")
		return Confirmation{}, err
	}
	if !applied {
		current, err := e.orders.GetByID(ctx, o.ID)
		if err != nil {
			return Confirmation{}, err
		}
		if current == nil {
			return Confirmation{}, fail(op, ErrOrderNotFound, nil)
		}
		if current.IsPaid {
			logger.Info().Msg("payment applied concurrently by another signal")
			return Confirmation{Order: current, AlreadyPaid: true}, nil
		}
		return Confirmation{}, fail(op, ErrNotPayable, fmt.Errorf("order status %s", current.Status))
	}

	o.IsPaid = true
	o.PaidAt = &paidAt
	o.Status = order.StatusProcessing
	o.PaymentResult = &result
	o.UpdatedAt = paidAt

	logger.Info().Str("payment_id", tx.ID).Str("amount", tx.Amount.String()).Msg("order paid")

	paid := *o
	e.afterCommit(ctx, func(ctx context.Context) { e.notifyOrderPaid(ctx, &paid) })

	return Confirmation{Order: o}, nil
}

func (e *Engine) verifyWithGateway(ctx context.Context, op, reference string) (payment.Transaction, error) {
	gctx, cancel := context.WithTimeout(ctx, e.cfg.GatewayTimeout)
	defer cancel()

	tx, err := e.gateway.VerifyByReference(gctx, reference)
	if err != nil {
		e.logger.Error().Err(err).Str("reference", reference).Msg("gateway verification failed")
		return payment.Transaction{}, fail(op, ErrGatewayVerification, err)
	}
	return tx, nil
}

func suspectedFraud(logger zerolog.Logger, o *order.Order, tx payment.Transaction) *zerolog.Event {
	return logger.Warn().
		Str("event", "suspected_fraud").
		Str("user_id", o.UserID).
		Str("expected_amount", o.TotalPrice.String()).
		Str("received_amount", tx.Amount.String()).
		Str("received_currency", tx.Currency).
		Str("gateway_reference", tx.Reference).
		Str("payment_id", tx.ID)
}
