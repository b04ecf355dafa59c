package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxItemQuantity bounds the quantity of a single order line.
	MaxItemQuantity = 1000
	// MoneyScale is the number of decimal places amounts are stored with.
	MoneyScale = 2
)

// maxAmount is the exclusive upper bound of a NUMERIC(12,2) column.
var maxAmount = decimal.New(1, 10)

// ValidAmount reports whether d is non-negative, fits the stored precision and
// carries no digits beyond MoneyScale.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxAmount) && d.Equal(d.Round(MoneyScale))
}

// Item is frozen at order time and never follows later catalog or cart changes.
type Item struct {
	ProductID      string          `json:"product"`
	Name           string          `json:"name"`
	Images         []string        `json:"images"`
	Price          decimal.Decimal `json:"price"`
	SelectedSize   string          `json:"selectedSize"`
	SelectedColors []string        `json:"selectedColors"`
	Quantity       int             `json:"quantity"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Complete() bool {
	return a.Address != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

// PaymentResult is the gateway's authoritative record, set once at the paid transition.
type PaymentResult struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Status      string          `json:"status"`
	Channel     string          `json:"channel"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Email       string          `json:"emailAddress"`
	GatewayTime *time.Time      `json:"paidAt,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user"`
	Items           []Item          `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ItemsTotal is the sum of price*quantity over the snapshot lines.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
