package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
)

// paymentTimeout covers the gateway round trip plus the surrounding reads and writes.
const paymentTimeout = 30 * time.Second

type PaymentHandler struct {
	svc    Checkout
	logger zerolog.Logger
}

func NewPaymentHandler(svc Checkout, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

type initializeResponse struct {
	Status    string `json:"status"`
	Link      string `json:"link"`
	Reference string `json:"reference"`
}

type verifyResponse struct {
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.OrderID == "" {
		writeError(w, r, http.StatusBadRequest, "orderId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	co, err := h.svc.InitiatePayment(ctx, p, body.OrderID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, initializeResponse{Status: "success", Link: co.Link, Reference: co.Reference})
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	c, err := h.svc.VerifyPayment(ctx, p, chi.URLParam(r, "txRef"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	msg := "Payment verified and order updated successfully"
	if c.AlreadyPaid {
		msg = "Order already paid"
	}
	writeJSON(w, http.StatusOK, verifyResponse{Message: msg, Order: c.Order})
}

// Webhook hands the exact received bytes to the engine; nothing decodes the body first.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentTimeout)
	defer cancel()

	res, err := h.svc.HandleWebhook(ctx, r.Header.Get(payment.HeaderWebhookSignature), body)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received", "outcome": res.Outcome})
}
