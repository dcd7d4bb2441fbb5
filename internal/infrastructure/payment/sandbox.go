package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusExpired = "EXPIRED"
)

// SandboxGateway is an in-memory Gateway for local runs and tests. Charges
// start PENDING, move to PAID through SimulatePayment and to EXPIRED once
// their expiry passes.
type SandboxGateway struct {
	mu      sync.RWMutex
	charges map[string]*PixCharge
	now     func() time.Time
}

var _ Gateway = (*SandboxGateway)(nil)

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		charges: make(map[string]*PixCharge),
		now:     time.Now,
	}
}

func (g *SandboxGateway) CreatePixCharge(_ context.Context, req PixChargeRequest) (*PixCharge, error) {
	if req.AmountCents <= 0 {
		return nil, &RejectedError{Op: "create pix charge", Details: []byte(`"amount must be positive"`)}
	}
	id := "pix_char_" + uuid.NewString()
	charge := &PixCharge{
		ID:           id,
		Amount:       req.AmountCents,
		Status:       StatusPending,
		BrCode:       fmt.Sprintf("00020101021226950014br.gov.bcb.pix2573sandbox/%s5204000053039865802BR", id),
		BrCodeBase64: "data:image/png;base64,c2FuZGJveA==",
		ExpiresAt:    g.now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second).Format(time.RFC3339),
	}

	g.mu.Lock()
	g.charges[id] = charge
	g.mu.Unlock()

	out := *charge
	return &out, nil
}

func (g *SandboxGateway) CheckPixStatus(_ context.Context, gatewayID string) (*PixStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	charge, ok := g.charges[gatewayID]
	if !ok {
		return nil, &RejectedError{Op: "check pix status", Details: []byte(`"PIX QR Code not found"`)}
	}
	g.expire(charge)
	return &PixStatus{Status: charge.Status, ExpiresAt: charge.ExpiresAt}, nil
}

func (g *SandboxGateway) SimulatePayment(_ context.Context, gatewayID string) (*PixStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	charge, ok := g.charges[gatewayID]
	if !ok {
		return nil, &RejectedError{Op: "simulate pix payment", Details: []byte(`"PIX QR Code not found"`)}
	}
	g.expire(charge)
	if charge.Status == StatusPending {
		charge.Status = StatusPaid
	}
	return &PixStatus{Status: charge.Status, ExpiresAt: charge.ExpiresAt}, nil
}

// expire must be called with g.mu held.
func (g *SandboxGateway) expire(charge *PixCharge) {
	if charge.Status != StatusPending {
		return
	}
	expiresAt, err := time.Parse(time.RFC3339, charge.ExpiresAt)
	if err == nil && g.now().After(expiresAt) {
		charge.Status = StatusExpired
	}
}
