package checkout

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
)

type PlaceOrderInput struct {
	Items           []order.Item          `json:"orderItems"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	TaxPrice        decimal.Decimal       `json:"taxPrice"`
	ShippingPrice   decimal.Decimal       `json:"shippingPrice"`
	TotalPrice      decimal.Decimal       `json:"totalPrice"`
}

// PlaceOrder turns the submitted items into a pending order and releases the user's cart
// in the same transaction.
func (e *Engine) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*order.Order, error) {
	const op = "place order"

	if len(in.Items) == 0 {
		return nil, fail(op, ErrEmptyOrder, nil)
	}
	if err := validatePlaceOrder(op, in); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	o := &order.Order{
		UserID:          userID,
		Items:           make([]order.Item, 0, len(in.Items)),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      in.TotalPrice,
		Currency:        e.cfg.Currency,
		Status:          order.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range in.Items {
		it.Images = nonNil(slices.Clone(it.Images))
		it.SelectedColors = nonNil(slices.Clone(it.SelectedColors))
		o.Items = append(o.Items, it)
	}

	if e.cfg.TotalsPolicy == TotalsVerify {
		expected := o.ItemsTotal().Add(o.TaxPrice).Add(o.ShippingPrice)
		if !expected.Equal(o.TotalPrice) {
			e.logger.Info().
				Str("user_id", userID).
				Str("declared_total", o.TotalPrice.String()).
				Str("computed_total", expected.String()).
				Msg("rejecting order with inconsistent totals")
			return nil, fail(op, ErrTotalsMismatch, nil)
		}
	}

	if err := e.orders.CreateAndReleaseCart(ctx, o); err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).Msg("create order and release cart")
		return nil, err
	}

	e.logger.Info().
		Str("order_id", o.ID).
		Str("user_id", userID).
		Str("total", o.TotalPrice.String()).
		Int("items", len(o.Items)).
		Msg("order placed")

	placed := *o
	e.afterCommit(ctx, func(ctx context.Context) { e.notifyOrderPlaced(ctx, &placed) })

	return o, nil
}

func validatePlaceOrder(op string, in PlaceOrderInput) error {
	for i, it := range in.Items {
		switch {
		case it.ProductID == "":
			return failf(op, ErrInvalidOrder, "item %d: product is required", i)
		case it.SelectedSize == "":
			return failf(op, ErrInvalidOrder, "item %d: selectedSize is required", i)
		case it.Quantity <= 0 || it.Quantity > order.MaxItemQuantity:
			return failf(op, ErrInvalidOrder, "item %d: quantity must be between 1 and %d", i, order.MaxItemQuantity)
		case !order.ValidAmount(it.Price):
			return failf(op, ErrInvalidOrder, "item %d: price must be a non-negative amount with at most %d decimals", i, order.MoneyScale)
		}
	}
	if !in.ShippingAddress.Complete() {
		return failf(op, ErrInvalidOrder, "shipping address must include address, city, postalCode and country")
	}
	if in.PaymentMethod == "" {
		return failf(op, ErrInvalidOrder, "paymentMethod is required")
	}
	if !order.ValidAmount(in.TaxPrice) || !order.ValidAmount(in.ShippingPrice) || !order.ValidAmount(in.TotalPrice) {
		return failf(op, ErrInvalidOrder, "prices must be non-negative amounts with at most %d decimals", order.MoneyScale)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
