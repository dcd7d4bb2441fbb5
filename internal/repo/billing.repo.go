package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pix-checkout/internal/domain"
)

var ErrBillingNotFound = errors.New("billing not found")

type BillingRepo interface {
	// CreateBilling assigns a fresh id to billing and stores it. An empty
	// status defaults to PENDING.
	CreateBilling(ctx context.Context, billing *domain.Billing) error
	// UpdateBilling merges patch into the stored billing and returns the
	// result, or ErrBillingNotFound.
	UpdateBilling(ctx context.Context, id uuid.UUID, patch domain.BillingPatch) (*domain.Billing, error)
	FindBillingByID(ctx context.Context, id uuid.UUID) (*domain.Billing, error)
	// FindBillingByGatewayID returns nil, nil when no billing carries gatewayID.
	FindBillingByGatewayID(ctx context.Context, gatewayID string) (*domain.Billing, error)
	// FindPendingBillings lists PENDING billings with a gateway id that were
	// last touched more than olderThan ago, oldest first. A limit <= 0
	// returns all of them.
	FindPendingBillings(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Billing, error)
}

type billingRepo struct {
	db *sql.DB
}

func NewBillingRepo(db *sql.DB) BillingRepo {
	return &billingRepo{db: db}
}

const billingColumns = `id, customer_id, amount, status, abacatepay_id, pix_code, qr_code_url, created_at, updated_at`

func (r *billingRepo) CreateBilling(ctx context.Context, billing *domain.Billing) error {
	now := time.Now().UTC()
	billing.ID = uuid.New()
	if billing.Status == "" {
		billing.Status = domain.BillingPending
	}
	billing.CreatedAt = now
	billing.UpdatedAt = now

	query := `INSERT INTO billings (` + billingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		billing.ID,
		billing.CustomerID,
		billing.Amount,
		billing.Status,
		nullable(billing.AbacatePayID),
		billing.PixCode,
		billing.QRCodeURL,
		billing.CreatedAt,
		billing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert billing: %w", err)
	}
	return nil
}

func (r *billingRepo) UpdateBilling(ctx context.Context, id uuid.UUID, patch domain.BillingPatch) (*domain.Billing, error) {
	query := `
		UPDATE billings
		SET status = COALESCE($2, status),
		    abacatepay_id = COALESCE($3, abacatepay_id),
		    pix_code = COALESCE($4, pix_code),
		    qr_code_url = COALESCE($5, qr_code_url),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + billingColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	row := r.db.QueryRowContext(ctx, query, id, status, patch.AbacatePayID, patch.PixCode, patch.QRCodeURL)
	b, err := scanBilling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update billing: %w", err)
	}
	return b, nil
}

func (r *billingRepo) FindBillingByID(ctx context.Context, id uuid.UUID) (*domain.Billing, error) {
	query := `SELECT ` + billingColumns + ` FROM billings WHERE id = $1`
	b, err := scanBilling(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get billing: %w", err)
	}
	return b, nil
}

func (r *billingRepo) FindBillingByGatewayID(ctx context.Context, gatewayID string) (*domain.Billing, error) {
	query := `SELECT ` + billingColumns + ` FROM billings WHERE abacatepay_id = $1 LIMIT 1`
	b, err := scanBilling(r.db.QueryRowContext(ctx, query, gatewayID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get billing by gateway id: %w", err)
	}
	return b, nil
}

func (r *billingRepo) FindPendingBillings(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Billing, error) {
	query := `
		SELECT ` + billingColumns + ` FROM billings
		WHERE status = $1
		AND abacatepay_id IS NOT NULL
		AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`
	// LIMIT NULL means no limit
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.QueryContext(ctx, query, domain.BillingPending, time.Now().UTC().Add(-olderThan), lim)
	if err != nil {
		return nil, fmt.Errorf("list pending billings: %w", err)
	}
	defer rows.Close()

	var billings []domain.Billing
	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing: %w", err)
		}
		billings = append(billings, *b)
	}
	return billings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBilling(row scanner) (*domain.Billing, error) {
	var (
		b            domain.Billing
		amount       string
		abacatePayID sql.NullString
	)
	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&amount,
		&b.Status,
		&abacatePayID,
		&b.PixCode,
		&b.QRCodeURL,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	b.Amount = d.StringFixed(2)
	b.AbacatePayID = abacatePayID.String
	return &b, nil
}

// nullable keeps the partial unique index on abacatepay_id free of empty strings.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
