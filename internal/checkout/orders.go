package checkout

import (
	"context"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
)

const maxAdminPage = 200

// GetOrder returns an order to its owner or to an admin.
func (e *Engine) GetOrder(ctx context.Context, caller auth.Principal, orderID string) (*order.Order, error) {
	const op = "get order"

	o, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fail(op, ErrOrderNotFound, nil)
	}
	if o.UserID != caller.UserID && !caller.Role.CanViewAnyOrder() {
		return nil, fail(op, ErrNotOwner, nil)
	}
	return o, nil
}

func (e *Engine) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	return e.orders.ListByUser(ctx, userID)
}

func (e *Engine) ListAllOrders(ctx context.Context, limit, offset int) ([]order.Order, error) {
	if limit <= 0 || limit > maxAdminPage {
		limit = maxAdminPage
	}
	if offset < 0 {
		offset = 0
	}
	return e.orders.ListAll(ctx, limit, offset)
}

// UpdateStatus is the administrative status change. It can never mark an order paid.
func (e *Engine) UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	const op = "update order status"

	to, err := order.ParseStatus(status)
	if err != nil {
		return nil, fail(op, ErrInvalidStatus, err)
	}

	o, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fail(op, ErrOrderNotFound, nil)
	}
	if !order.CanTransitionManually(o.Status, to) {
		return nil, failf(op, ErrInvalidTransition, "cannot change order status from %s to %s", o.Status, to)
	}

	applied, err := e.orders.UpdateStatus(ctx, orderID, o.Status, to, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fail(op, ErrInvalidTransition, fmt.Errorf("order %s changed concurrently", orderID))
	}

	updated, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fail(op, ErrOrderNotFound, nil)
	}

	e.logger.Info().
		Str("order_id", orderID).
		Str("from", string(o.Status)).
		Str("to", string(to)).
		Msg("order status updated")
	return updated, nil
}
