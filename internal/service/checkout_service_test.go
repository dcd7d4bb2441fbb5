package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pix-checkout/internal/domain"
	"pix-checkout/internal/infrastructure/payment"
	"pix-checkout/internal/repo"
	"pix-checkout/internal/validation"
)

func anaSilva() map[string]any {
	return map[string]any{
		"name":  "Ana Silva",
		"email": "ana@example.com",
		"phone": "11999999999",
		"taxId": "12345678901",
	}
}

func newService(gateway payment.Gateway) (CheckoutService, *repo.MemoryStore) {
	store := repo.NewMemoryStore()
	return NewCheckoutService(store, store, gateway, zerolog.Nop()), store
}

func TestCheckout_Success(t *testing.T) {
	gw := &MockGateway{CreateFunc: pixOne}
	svc, store := newService(gw)

	res, err := svc.Checkout(context.Background(), anaSilva())
	require.NoError(t, err)

	assert.Equal(t, "pix_1", res.PixID)
	assert.Equal(t, int64(990), res.Amount)
	assert.Equal(t, "000201...", res.PixCode)
	assert.Equal(t, "data:...", res.QRCodeURL)
	assert.Equal(t, "2024-01-02T00:00:00Z", res.ExpiresAt)
	assert.Equal(t, domain.BillingPending, res.Billing.Status)
	assert.Equal(t, "pix_1", res.Billing.AbacatePayID)
	assert.Equal(t, "9.90", res.Billing.Amount)
	assert.Equal(t, res.Customer.ID, res.Billing.CustomerID)
	assert.Equal(t, "Ana Silva", res.Customer.Name)

	require.Len(t, gw.CreateRequests, 1)
	req := gw.CreateRequests[0]
	assert.Equal(t, int64(990), req.AmountCents)
	assert.Equal(t, int64(86400), req.ExpiresIn)
	assert.Equal(t, ChargeDescription, req.Description)
	assert.Equal(t, res.Billing.ID.String(), req.ExternalID)
	assert.Equal(t, payment.PixCustomer{Name: "Ana Silva", Cellphone: "11999999999", Email: "ana@example.com", TaxID: "12345678901"}, req.Customer)

	stored, err := store.FindBillingByGatewayID(context.Background(), "pix_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, res.Billing.ID, stored.ID)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"abacatePayId":"pix_1"`)
	assert.Contains(t, string(body), `"amount":990`)
}

func TestCheckout_InvalidInput(t *testing.T) {
	gw := &MockGateway{CreateFunc: pixOne}
	svc, store := newService(gw)

	input := anaSilva()
	delete(input, "email")
	input["phone"] = "123"

	_, err := svc.Checkout(context.Background(), input)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, "email", verr.Violations[0].Field)
	assert.Equal(t, "phone", verr.Violations[1].Field)

	customers, billings := store.Len()
	assert.Zero(t, customers)
	assert.Zero(t, billings)
	assert.Empty(t, gw.CreateRequests)
}

func TestCheckout_GatewayNotConfigured(t *testing.T) {
	svc, store := newService(nil)

	_, err := svc.Checkout(context.Background(), anaSilva())
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	// records are created before the credential check
	customers, billings := store.Len()
	assert.Equal(t, 1, customers)
	assert.Equal(t, 1, billings)
}

func TestCheckout_GatewayErrors(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		gw := &MockGateway{CreateFunc: func(context.Context, payment.PixChargeRequest) (*payment.PixCharge, error) {
			return nil, &payment.UnavailableError{Op: "create pix charge", StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
		}}
		svc, _ := newService(gw)

		_, err := svc.Checkout(context.Background(), anaSilva())
		var unavailable *payment.UnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("rejected", func(t *testing.T) {
		gw := &MockGateway{CreateFunc: func(context.Context, payment.PixChargeRequest) (*payment.PixCharge, error) {
			return nil, &payment.RejectedError{Op: "create pix charge", Details: json.RawMessage(`"invalid taxId"`)}
		}}
		svc, store := newService(gw)

		_, err := svc.Checkout(context.Background(), anaSilva())
		var rejected *payment.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.JSONEq(t, `"invalid taxId"`, string(rejected.Details))

		pending, err := store.FindPendingBillings(context.Background(), -time.Hour, 0)
		require.NoError(t, err)
		assert.Empty(t, pending, "billing without gateway id is never reconciled")
	})
}

func TestCheckPayment_PaidIsIdempotent(t *testing.T) {
	gw := &MockGateway{CreateFunc: pixOne, CheckFunc: statusReturning("PAID")}
	svc, store := newService(gw)
	ctx := context.Background()

	checkout, err := svc.Checkout(ctx, anaSilva())
	require.NoError(t, err)

	first, err := svc.CheckPayment(ctx, "pix_1")
	require.NoError(t, err)
	assert.True(t, first.IsPaid)
	assert.Equal(t, "PAID", first.Status)

	afterFirst, err := store.FindBillingByID(ctx, checkout.Billing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingPaid, afterFirst.Status)

	second, err := svc.CheckPayment(ctx, "pix_1")
	require.NoError(t, err)
	assert.True(t, second.IsPaid)

	afterSecond, err := store.FindBillingByID(ctx, checkout.Billing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingPaid, afterSecond.Status)
	assert.Equal(t, afterFirst.UpdatedAt, afterSecond.UpdatedAt, "second PAID check must be a no-op")

	_, billings := store.Len()
	assert.Equal(t, 1, billings)
}

func TestCheckPayment_UnknownExpired(t *testing.T) {
	gw := &MockGateway{CheckFunc: statusReturning("EXPIRED")}
	svc, store := newService(gw)

	res, err := svc.CheckPayment(context.Background(), "pix_unknown")
	require.NoError(t, err)
	assert.False(t, res.IsPaid)
	assert.Equal(t, "EXPIRED", res.Status)

	customers, billings := store.Len()
	assert.Zero(t, customers)
	assert.Zero(t, billings)
}

func TestCheckPayment_PendingLeavesBillingAlone(t *testing.T) {
	gw := &MockGateway{CreateFunc: pixOne, CheckFunc: statusReturning("PENDING")}
	svc, store := newService(gw)
	ctx := context.Background()

	checkout, err := svc.Checkout(ctx, anaSilva())
	require.NoError(t, err)

	res, err := svc.CheckPayment(ctx, "pix_1")
	require.NoError(t, err)
	assert.False(t, res.IsPaid)

	b, err := store.FindBillingByID(ctx, checkout.Billing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingPending, b.Status)
}

func TestCheckPayment_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc, _ := newService(nil)
		_, err := svc.CheckPayment(context.Background(), "pix_1")
		assert.ErrorIs(t, err, ErrGatewayNotConfigured)
	})

	t.Run("rejected", func(t *testing.T) {
		gw := &MockGateway{CheckFunc: func(context.Context, string) (*payment.PixStatus, error) {
			return nil, &payment.RejectedError{Op: "check pix status", Details: json.RawMessage(`"not found"`)}
		}}
		svc, _ := newService(gw)
		_, err := svc.CheckPayment(context.Background(), "pix_1")
		var rejected *payment.RejectedError
		assert.ErrorAs(t, err, &rejected)
	})
}

func TestSimulatePayment_WithSandbox(t *testing.T) {
	svc, store := newService(payment.NewSandboxGateway())
	ctx := context.Background()

	checkout, err := svc.Checkout(ctx, anaSilva())
	require.NoError(t, err)

	res, err := svc.SimulatePayment(ctx, checkout.PixID)
	require.NoError(t, err)
	assert.True(t, res.IsPaid)

	b, err := store.FindBillingByID(ctx, checkout.Billing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingPaid, b.Status)

	check, err := svc.CheckPayment(ctx, checkout.PixID)
	require.NoError(t, err)
	assert.True(t, check.IsPaid)
}

func TestGetBilling(t *testing.T) {
	svc, _ := newService(&MockGateway{CreateFunc: pixOne})
	ctx := context.Background()

	checkout, err := svc.Checkout(ctx, anaSilva())
	require.NoError(t, err)

	details, err := svc.GetBilling(ctx, checkout.Billing.ID)
	require.NoError(t, err)
	assert.Equal(t, "pix_1", details.Billing.AbacatePayID)
	require.NotNil(t, details.Customer)
	assert.Equal(t, checkout.Customer.ID, details.Customer.ID)

	_, err = svc.GetBilling(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBillingNotFound)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore()

	statuses := map[string]string{"pix_paid": "PAID", "pix_expired": "EXPIRED", "pix_waiting": "PENDING"}
	gw := &MockGateway{CheckFunc: func(_ context.Context, id string) (*payment.PixStatus, error) {
		if id == "pix_broken" {
			return nil, &payment.UnavailableError{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway"}
		}
		return &payment.PixStatus{Status: statuses[id]}, nil
	}}
	svc := NewCheckoutService(store, store, gw, zerolog.Nop())

	ids := make(map[string]uuid.UUID)
	for _, gatewayID := range []string{"pix_paid", "pix_expired", "pix_waiting", "pix_broken"} {
		b := domain.NewBilling(uuid.New(), domain.CoursePrice)
		b.AbacatePayID = gatewayID
		require.NoError(t, store.CreateBilling(ctx, b))
		ids[gatewayID] = b.ID
	}

	changed, err := svc.Reconcile(ctx, -time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Len(t, gw.CheckCalls, 4)

	expect := map[string]domain.BillingStatus{
		"pix_paid":    domain.BillingPaid,
		"pix_expired": domain.BillingExpired,
		"pix_waiting": domain.BillingPending,
		"pix_broken":  domain.BillingPending,
	}
	for gatewayID, status := range expect {
		b, err := store.FindBillingByID(ctx, ids[gatewayID])
		require.NoError(t, err)
		assert.Equal(t, status, b.Status, gatewayID)
	}

	changed, err = svc.Reconcile(ctx, -time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestReconcile_NotConfigured(t *testing.T) {
	svc, _ := newService(nil)
	_, err := svc.Reconcile(context.Background(), time.Minute, 10)
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}
