package payment

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	HeaderWebhookSignature = "verif-hash"

	EventChargeCompleted = "charge.completed"
	EventChargeFailed    = "charge.failed"
	EventDispute         = "transaction.dispute"
)

// VerifySignature compares the shared secret header in constant time.
// An empty secret never verifies.
func VerifySignature(header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}

type WebhookEvent struct {
	Type string      `json:"event"`
	Data WebhookData `json:"data"`
}

type WebhookData struct {
	ID                flwID           `json:"id"`
	Reference         string          `json:"tx_ref"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	ProcessorResponse string          `json:"processor_response"`
	Meta              Meta            `json:"meta"`
}

// DeliveryID identifies the delivery for replay detection. It is empty when the
// payload carries no transaction id, and such deliveries are never deduplicated.
func (e WebhookEvent) DeliveryID() string {
	if e.Data.ID == "" {
		return ""
	}
	return e.Type + ":" + string(e.Data.ID)
}

func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	if ev.Type == "" {
		return WebhookEvent{}, fmt.Errorf("decode webhook: missing event type")
	}
	return ev, nil
}

// flwID accepts the gateway's numeric or string transaction ids.
type flwID string

func (id *flwID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*id = flwID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	*id = flwID(s)
	return nil
}
