package service

import (
	"context"
	"errors"

	"pix-checkout/internal/infrastructure/payment"
)

var errNotStubbed = errors.New("not stubbed")

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	CreateFunc   func(ctx context.Context, req payment.PixChargeRequest) (*payment.PixCharge, error)
	CheckFunc    func(ctx context.Context, gatewayID string) (*payment.PixStatus, error)
	SimulateFunc func(ctx context.Context, gatewayID string) (*payment.PixStatus, error)

	CreateRequests []payment.PixChargeRequest
	CheckCalls     []string
}

func (m *MockGateway) CreatePixCharge(ctx context.Context, req payment.PixChargeRequest) (*payment.PixCharge, error) {
	m.CreateRequests = append(m.CreateRequests, req)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return nil, errNotStubbed
}

func (m *MockGateway) CheckPixStatus(ctx context.Context, gatewayID string) (*payment.PixStatus, error) {
	m.CheckCalls = append(m.CheckCalls, gatewayID)
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, gatewayID)
	}
	return nil, errNotStubbed
}

func (m *MockGateway) SimulatePayment(ctx context.Context, gatewayID string) (*payment.PixStatus, error) {
	if m.SimulateFunc != nil {
		return m.SimulateFunc(ctx, gatewayID)
	}
	return nil, errNotStubbed
}

func statusReturning(status string) func(context.Context, string) (*payment.PixStatus, error) {
	return func(context.Context, string) (*payment.PixStatus, error) {
		return &payment.PixStatus{Status: status, ExpiresAt: "2024-01-02T00:00:00Z"}, nil
	}
}

func pixOne(context.Context, payment.PixChargeRequest) (*payment.PixCharge, error) {
	return &payment.PixCharge{
		ID:           "pix_1",
		BrCode:       "000201...",
		BrCodeBase64: "data:...",
		Status:       "PENDING",
		Amount:       990,
		ExpiresAt:    "2024-01-02T00:00:00Z",
	}, nil
}
