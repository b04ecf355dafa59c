package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUpstream wraps every transport, timeout or non-2xx failure talking to the gateway.
var ErrUpstream = errors.New("payment gateway unavailable")

const StatusSuccessful = "successful"

// Gateway is the hosted-payment provider. Implementations must honour ctx deadlines.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (Checkout, error)
	VerifyByReference(ctx context.Context, reference string) (Transaction, error)
}

type Customer struct {
	Email string
	Name  string
	Phone string
}

type InitiateRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	RedirectURL string
	Customer    Customer
	Title       string
	Description string
	Meta        Meta
}

type Meta struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id,omitempty"`
}

// Checkout is where the payer is sent to complete the payment.
type Checkout struct {
	Reference string `json:"reference"`
	Link      string `json:"link"`
}

// Transaction is the gateway's own view of a payment, the only source trusted for reconciliation.
type Transaction struct {
	ID         string
	Reference  string
	Status     string
	Amount     decimal.Decimal
	Currency   string
	Channel    string
	PayerEmail string
	CreatedAt  *time.Time
	Meta       Meta
}

func (t Transaction) Successful() bool { return t.Status == StatusSuccessful }
