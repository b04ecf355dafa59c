package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http/middleware"
)

const maxGatewayBody = 1 << 20

// Flutterwave talks to the Flutterwave v3 REST API.
type Flutterwave struct {
	baseURL   *url.URL
	secretKey string
	http      *http.Client
	timeout   time.Duration
}

func NewFlutterwave(baseURL, secretKey string, timeout time.Duration) (*Flutterwave, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid flutterwave base url %q: %w", baseURL, err)
	}
	return &Flutterwave{
		baseURL:   u,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
		timeout:   timeout,
	}, nil
}

type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type flwInitiateBody struct {
	TxRef          string          `json:"tx_ref"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	RedirectURL    string          `json:"redirect_url"`
	Customer       flwCustomer     `json:"customer"`
	Customizations flwCustomize    `json:"customizations"`
	Meta           Meta            `json:"meta"`
}

type flwCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name"`
}

type flwCustomize struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type flwTransaction struct {
	ID          flwID           `json:"id"`
	TxRef       string          `json:"tx_ref"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	PaymentType string          `json:"payment_type"`
	CreatedAt   *time.Time      `json:"created_at"`
	Customer    struct {
		Email string `json:"email"`
	} `json:"customer"`
	Meta Meta `json:"meta"`
}

func (f *Flutterwave) Initiate(ctx context.Context, req InitiateRequest) (Checkout, error) {
	body, err := json.Marshal(flwInitiateBody{
		TxRef:       req.Reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer: flwCustomer{
			Email:       req.Customer.Email,
			PhoneNumber: req.Customer.Phone,
			Name:        req.Customer.Name,
		},
		Customizations: flwCustomize{Title: req.Title, Description: req.Description},
		Meta:           req.Meta,
	})
	if err != nil {
		return Checkout{}, fmt.Errorf("encode initiate: %w", err)
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := f.call(ctx, http.MethodPost, "/v3/payments", "", body, &data); err != nil {
		return Checkout{}, err
	}
	if data.Link == "" {
		return Checkout{}, fmt.Errorf("%w: initiate returned no link", ErrUpstream)
	}
	return Checkout{Reference: req.Reference, Link: data.Link}, nil
}

func (f *Flutterwave) VerifyByReference(ctx context.Context, reference string) (Transaction, error) {
	q := url.Values{"tx_ref": {reference}}.Encode()

	var tx flwTransaction
	if err := f.call(ctx, http.MethodGet, "/v3/transactions/verify_by_reference", q, nil, &tx); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:         string(tx.ID),
		Reference:  tx.TxRef,
		Status:     tx.Status,
		Amount:     tx.Amount,
		Currency:   tx.Currency,
		Channel:    tx.PaymentType,
		PayerEmail: tx.Customer.Email,
		CreatedAt:  tx.CreatedAt,
		Meta:       tx.Meta,
	}, nil
}

// call performs one bounded request and decodes the envelope's data into out.
func (f *Flutterwave) call(ctx context.Context, method, path, rawQuery string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	u := f.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: rawQuery})

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrUpstream, method, path, resp.StatusCode)
	}

	var env flwEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode envelope: %v", ErrUpstream, err)
	}
	if env.Status != "success" {
		return fmt.Errorf("%w: %s", ErrUpstream, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUpstream, err)
	}
	return nil
}
