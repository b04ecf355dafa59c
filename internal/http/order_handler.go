package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
)

const orderTimeout = 5 * time.Second

// Checkout is the engine surface the HTTP layer drives.
type Checkout interface {
	PlaceOrder(ctx context.Context, userID string, in checkout.PlaceOrderInput) (*order.Order, error)
	GetOrder(ctx context.Context, caller auth.Principal, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, userID string) ([]order.Order, error)
	ListAllOrders(ctx context.Context, limit, offset int) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error)
	InitiatePayment(ctx context.Context, caller auth.Principal, orderID string) (payment.Checkout, error)
	VerifyPayment(ctx context.Context, caller auth.Principal, reference string) (checkout.Confirmation, error)
	HandleWebhook(ctx context.Context, signature string, body []byte) (checkout.WebhookResult, error)
}

type OrderHandler struct {
	svc    Checkout
	logger zerolog.Logger
}

func NewOrderHandler(svc Checkout, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	var in checkout.PlaceOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	o, err := h.svc.PlaceOrder(ctx, p.UserID, in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	o, err := h.svc.GetOrder(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, p.UserID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	orders, err := h.svc.ListAllOrders(ctx, limit, offset)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Status == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	o, err := h.svc.UpdateStatus(ctx, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
