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
)

const DefaultBaseURL = "https://api.abacatepay.com/v1"

type AbacatePayConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AbacatePayClient talks to the AbacatePay PIX QR code API. Calls are not
// retried.
type AbacatePayClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Gateway = (*AbacatePayClient)(nil)

func NewAbacatePayClient(cfg AbacatePayConfig) (*AbacatePayClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AbacatePayClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// envelope is the shape of every AbacatePay response.
type envelope[T any] struct {
	Data  *T              `json:"data"`
	Error json.RawMessage `json:"error"`
}

type createPixRequest struct {
	Amount      int64          `json:"amount"`
	ExpiresIn   int64          `json:"expiresIn"`
	Description string         `json:"description"`
	Customer    PixCustomer    `json:"customer"`
	Metadata    createMetadata `json:"metadata"`
}

type createMetadata struct {
	ExternalID string `json:"externalId"`
}

func (c *AbacatePayClient) CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixCharge, error) {
	body := createPixRequest{
		Amount:      req.AmountCents,
		ExpiresIn:   req.ExpiresIn,
		Description: req.Description,
		Customer:    req.Customer,
		Metadata:    createMetadata{ExternalID: req.ExternalID},
	}
	var out envelope[PixCharge]
	if err := c.do(ctx, "create pix charge", http.MethodPost, "/pixQrCode/create", nil, body, &out); err != nil {
		return nil, err
	}
	if hasError(out.Error) {
		return nil, &RejectedError{Op: "create pix charge", Details: out.Error}
	}
	if out.Data == nil {
		return nil, fmt.Errorf("create pix charge: response without data")
	}
	return out.Data, nil
}

func (c *AbacatePayClient) CheckPixStatus(ctx context.Context, gatewayID string) (*PixStatus, error) {
	return c.status(ctx, "check pix status", http.MethodGet, "/pixQrCode/check", gatewayID)
}

func (c *AbacatePayClient) SimulatePayment(ctx context.Context, gatewayID string) (*PixStatus, error) {
	return c.status(ctx, "simulate pix payment", http.MethodPost, "/pixQrCode/simulate-payment", gatewayID)
}

func (c *AbacatePayClient) status(ctx context.Context, op, method, path, gatewayID string) (*PixStatus, error) {
	query := url.Values{"id": {gatewayID}}
	var body any
	if method == http.MethodPost {
		body = struct {
			Metadata map[string]string `json:"metadata"`
		}{Metadata: map[string]string{}}
	}
	var out envelope[PixStatus]
	if err := c.do(ctx, op, method, path, query, body, &out); err != nil {
		return nil, err
	}
	if hasError(out.Error) {
		return nil, &RejectedError{Op: op, Details: out.Error}
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%s: response without data", op)
	}
	return out.Data, nil
}

func (c *AbacatePayClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &UnavailableError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// hasError treats an absent or falsy error field (null, false, "", 0) as success.
func hasError(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
