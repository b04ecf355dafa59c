package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
)

const (
	producerName = "checkout-service"

	OrderCreatedEventName = "OrderCreated"
	OrderPaidEventName    = "OrderPaid"
	eventVersion          = 1
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Items      []OrderItem     `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Currency   string          `json:"currency"`
	Timestamp  time.Time       `json:"timestamp"`
}

type OrderPaidPayload struct {
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentID        string          `json:"paymentId"`
	PaymentReference string          `json:"paymentReference"`
	PaidAt           time.Time       `json:"paidAt"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]
type OrderPaidEnvelope = EventEnvelope[OrderPaidPayload]

func BuildOrderCreatedEnvelope(o *order.Order, seq int64, meta EnvelopeMetadata) OrderCreatedEnvelope {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	return newEnvelope(OrderCreatedEventName, o.ID, seq, meta, OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      items,
		TotalPrice: o.TotalPrice,
		Currency:   o.Currency,
		Timestamp:  o.CreatedAt,
	})
}

// BuildOrderPaidEnvelope expects an order that carries its payment result.
func BuildOrderPaidEnvelope(o *order.Order, seq int64, meta EnvelopeMetadata) OrderPaidEnvelope {
	p := OrderPaidPayload{OrderID: o.ID, UserID: o.UserID, Currency: o.Currency}
	if o.PaymentResult != nil {
		p.Amount = o.PaymentResult.Amount
		p.Currency = o.PaymentResult.Currency
		p.PaymentID = o.PaymentResult.ID
		p.PaymentReference = o.PaymentResult.Reference
	}
	if o.PaidAt != nil {
		p.PaidAt = *o.PaidAt
	}

	return newEnvelope(OrderPaidEventName, o.ID, seq, meta, p)
}
