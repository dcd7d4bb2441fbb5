package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pix-checkout/internal/domain"
)

type CustomerRepo interface {
	// CreateCustomer assigns a fresh id to customer and stores it.
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	// FindCustomerByID returns nil, nil when no customer has the id.
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type customerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) CustomerRepo {
	return &customerRepo{db: db}
}

func (r *customerRepo) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	customer.ID = uuid.New()
	customer.CreatedAt = time.Now().UTC()

	query := `INSERT INTO customers (id, name, email, phone, tax_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Phone, customer.TaxID, customer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *customerRepo) FindCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT id, name, email, phone, tax_id, created_at FROM customers WHERE id = $1`
	var c domain.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.TaxID,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}
