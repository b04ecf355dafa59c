package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
)

const cartTimeout = 5 * time.Second

type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID string, in cart.ItemInput) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) (*cart.Cart, error)
}

type CartHandler struct {
	svc    CartService
	logger zerolog.Logger
}

func NewCartHandler(svc CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{svc: svc, logger: logger}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), cartTimeout)
	defer cancel()

	c, err := h.svc.Get(ctx, p.UserID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.AddItem)
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.UpdateQuantity)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.RemoveItem)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), cartTimeout)
	defer cancel()

	c, err := h.svc.Clear(ctx, p.UserID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(context.Context, string, cart.ItemInput) (*cart.Cart, error)) {
	p, _ := auth.FromContext(r.Context())

	var in cart.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cartTimeout)
	defer cancel()

	c, err := op(ctx, p.UserID, in)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
