package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pix-checkout/internal/domain"
	"pix-checkout/internal/infrastructure/payment"
	"pix-checkout/internal/repo"
	"pix-checkout/internal/validation"
)

const (
	PixExpiresIn      = int64(24 * time.Hour / time.Second)
	ChargeDescription = "Confeitaria Lucrativa - Curso Completo"
)

type CheckoutService interface {
	Checkout(ctx context.Context, input any) (*CheckoutResult, error)
	CheckPayment(ctx context.Context, gatewayID string) (*PaymentStatusResult, error)
	SimulatePayment(ctx context.Context, gatewayID string) (*PaymentStatusResult, error)
	GetBilling(ctx context.Context, id uuid.UUID) (*BillingDetails, error)
	Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type CheckoutResult struct {
	Billing   *domain.Billing  `json:"billing"`
	Customer  *domain.Customer `json:"customer"`
	PixID     string           `json:"pixId"`
	PixCode   string           `json:"pixCode"`
	QRCodeURL string           `json:"qrCodeUrl"`
	Amount    int64            `json:"amount"`
	ExpiresAt string           `json:"expiresAt"`
}

type PaymentStatusResult struct {
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
	IsPaid    bool   `json:"isPaid"`
}

type BillingDetails struct {
	Billing  *domain.Billing  `json:"billing"`
	Customer *domain.Customer `json:"customer"`
}

type checkoutService struct {
	customerRepo repo.CustomerRepo
	billingRepo  repo.BillingRepo
	gateway      payment.Gateway
	log          zerolog.Logger
}

// NewCheckoutService wires the checkout workflow. A nil gateway means no
// credential is configured; checkout and status calls then fail with
// ErrGatewayNotConfigured without contacting anything.
func NewCheckoutService(
	customerRepo repo.CustomerRepo,
	billingRepo repo.BillingRepo,
	gateway payment.Gateway,
	log zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		customerRepo: customerRepo,
		billingRepo:  billingRepo,
		gateway:      gateway,
		log:          log.With().Str("component", "checkout").Logger(),
	}
}

func (s *checkoutService) Checkout(ctx context.Context, input any) (*CheckoutResult, error) {
	s.log.Info().Msg("checkout request received")

	// 1. Validate
	in, err := validation.Customer(input)
	if err != nil {
		return nil, err
	}

	// 2. Customer
	customer := domain.NewCustomer(in)
	if err := s.customerRepo.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	s.log.Info().Stringer("customer_id", customer.ID).Msg("customer created")

	// 3. Billing, fixed price
	billing := domain.NewBilling(customer.ID, domain.CoursePrice)
	if err := s.billingRepo.CreateBilling(ctx, billing); err != nil {
		return nil, fmt.Errorf("create billing: %w", err)
	}
	s.log.Info().Stringer("billing_id", billing.ID).Msg("billing created")

	// 4. Gateway must be configured
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	// 5. PIX charge
	charge, err := s.gateway.CreatePixCharge(ctx, payment.PixChargeRequest{
		AmountCents: domain.Cents(domain.CoursePrice),
		ExpiresIn:   PixExpiresIn,
		Description: ChargeDescription,
		Customer: payment.PixCustomer{
			Name:      customer.Name,
			Cellphone: customer.Phone,
			Email:     customer.Email,
			TaxID:     customer.TaxID,
		},
		ExternalID: billing.ID.String(),
	})
	// 6. Gateway failure
	if err != nil {
		s.log.Error().Err(err).Stringer("billing_id", billing.ID).Msg("pix charge failed")
		return nil, fmt.Errorf("checkout: %w", err)
	}
	s.log.Info().Str("pix_id", charge.ID).Stringer("billing_id", billing.ID).Msg("pix charge created")

	// 7. Attach gateway data to the billing
	status := domain.BillingStatus(charge.Status)
	updated, err := s.billingRepo.UpdateBilling(ctx, billing.ID, domain.BillingPatch{
		Status:       &status,
		AbacatePayID: &charge.ID,
		PixCode:      &charge.BrCode,
		QRCodeURL:    &charge.BrCodeBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("update billing %s: %w", billing.ID, err)
	}

	// 8. Response
	s.log.Info().Str("pix_id", charge.ID).Msg("checkout completed")
	return &CheckoutResult{
		Billing:   updated,
		Customer:  customer,
		PixID:     charge.ID,
		PixCode:   charge.BrCode,
		QRCodeURL: charge.BrCodeBase64,
		Amount:    charge.Amount,
		ExpiresAt: charge.ExpiresAt,
	}, nil
}

func (s *checkoutService) CheckPayment(ctx context.Context, gatewayID string) (*PaymentStatusResult, error) {
	s.log.Info().Str("pix_id", gatewayID).Msg("checking payment")

	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	status, err := s.gateway.CheckPixStatus(ctx, gatewayID)
	if err != nil {
		s.log.Error().Err(err).Str("pix_id", gatewayID).Msg("payment check failed")
		return nil, fmt.Errorf("check payment: %w", err)
	}
	s.log.Info().Str("pix_id", gatewayID).Str("status", status.Status).Msg("payment status")

	if _, err := s.settle(ctx, gatewayID, status.Status); err != nil {
		return nil, err
	}

	return &PaymentStatusResult{
		Status:    status.Status,
		ExpiresAt: status.ExpiresAt,
		IsPaid:    status.Status == string(domain.BillingPaid),
	}, nil
}

func (s *checkoutService) SimulatePayment(ctx context.Context, gatewayID string) (*PaymentStatusResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	status, err := s.gateway.SimulatePayment(ctx, gatewayID)
	if err != nil {
		return nil, fmt.Errorf("simulate payment: %w", err)
	}
	if _, err := s.settle(ctx, gatewayID, status.Status); err != nil {
		return nil, err
	}
	return &PaymentStatusResult{
		Status:    status.Status,
		ExpiresAt: status.ExpiresAt,
		IsPaid:    status.Status == string(domain.BillingPaid),
	}, nil
}

// settle marks the local billing PAID when the gateway says so. Unknown
// gateway ids and billings that are already PAID are left alone. It reports
// whether a billing was updated.
func (s *checkoutService) settle(ctx context.Context, gatewayID, gatewayStatus string) (bool, error) {
	if gatewayStatus != string(domain.BillingPaid) {
		return false, nil
	}
	billing, err := s.billingRepo.FindBillingByGatewayID(ctx, gatewayID)
	if err != nil {
		return false, fmt.Errorf("find billing by gateway id: %w", err)
	}
	if billing == nil || billing.IsPaid() {
		return false, nil
	}

	paid := domain.BillingPaid
	if _, err := s.billingRepo.UpdateBilling(ctx, billing.ID, domain.BillingPatch{Status: &paid}); err != nil {
		return false, fmt.Errorf("mark billing %s paid: %w", billing.ID, err)
	}
	s.log.Info().Stringer("billing_id", billing.ID).Str("pix_id", gatewayID).Msg("local billing updated to PAID")
	return true, nil
}

func (s *checkoutService) GetBilling(ctx context.Context, id uuid.UUID) (*BillingDetails, error) {
	billing, err := s.billingRepo.FindBillingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get billing: %w", err)
	}
	if billing == nil {
		return nil, ErrBillingNotFound
	}
	customer, err := s.customerRepo.FindCustomerByID(ctx, billing.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &BillingDetails{Billing: billing, Customer: customer}, nil
}

// terminalStatuses end a charge's life at the gateway; reconciliation records
// them so the billing is not polled again.
var terminalStatuses = map[domain.BillingStatus]bool{
	domain.BillingExpired:   true,
	domain.BillingCancelled: true,
	domain.BillingRefunded:  true,
}

// Reconcile asks the gateway about PENDING billings that have not been
// touched for olderThan and settles them. It returns how many billings
// changed. Per-billing gateway failures are logged and skipped.
func (s *checkoutService) Reconcile(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if s.gateway == nil {
		return 0, ErrGatewayNotConfigured
	}

	stale, err := s.billingRepo.FindPendingBillings(ctx, olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending billings: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}
	s.log.Info().Int("count", len(stale)).Msg("reconciling pending billings")

	changed := 0
	for _, billing := range stale {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		status, err := s.gateway.CheckPixStatus(ctx, billing.AbacatePayID)
		if err != nil {
			s.log.Warn().Err(err).Stringer("billing_id", billing.ID).Msg("reconcile: status check failed")
			continue
		}

		gatewayStatus := domain.BillingStatus(status.Status)
		switch {
		case gatewayStatus == domain.BillingPaid:
			updated, err := s.settle(ctx, billing.AbacatePayID, status.Status)
			if err != nil {
				return changed, err
			}
			if updated {
				changed++
			}
		case terminalStatuses[gatewayStatus]:
			_, err := s.billingRepo.UpdateBilling(ctx, billing.ID, domain.BillingPatch{Status: &gatewayStatus})
			if errors.Is(err, repo.ErrBillingNotFound) {
				continue
			}
			if err != nil {
				return changed, fmt.Errorf("mark billing %s %s: %w", billing.ID, gatewayStatus, err)
			}
			s.log.Info().Stringer("billing_id", billing.ID).Str("status", status.Status).Msg("reconcile: billing closed")
			changed++
		}
	}
	return changed, nil
}
