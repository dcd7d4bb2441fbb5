package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Gateway interface {
	CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error)
	CheckPixStatus(ctx context.Context, gatewayID string) (*PixStatus, error)
	// SimulatePayment marks a charge as paid. Only dev-mode gateways honour it.
	SimulatePayment(ctx context.Context, gatewayID string) (*PixStatus, error)
}

type PixCustomer struct {
	Name      string `json:"name"`
	Cellphone string `json:"cellphone"`
	Email     string `json:"email"`
	TaxID     string `json:"taxId"`
}

type PixChargeRequest struct {
	AmountCents int64
	ExpiresIn   int64 // seconds
	Description string
	Customer    PixCustomer
	ExternalID  string
}

type PixCharge struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	BrCode       string `json:"brCode"`
	BrCodeBase64 string `json:"brCodeBase64"`
	ExpiresAt    string `json:"expiresAt"`
}

type PixStatus struct {
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

var ErrMissingAPIKey = errors.New("ABACATEPAY_API_KEY not configured")

// UnavailableError is returned when the gateway answers with a non-2xx status.
type UnavailableError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: gateway responded %s", e.Op, e.Status)
}

// RejectedError is returned when the gateway reports an application error in
// the response body. Details is passed through to the client untouched.
type RejectedError struct {
	Op      string
	Details json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: gateway rejected request: %s", e.Op, string(e.Details))
}
