package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomerInput holds the validated checkout payload.
type CustomerInput struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=10"`
	TaxID string `json:"taxId" validate:"required,min=11"`
}

type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	TaxID     string    `json:"taxId"`
	CreatedAt time.Time `json:"-"`
}

func NewCustomer(in CustomerInput) *Customer {
	return &Customer{
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		TaxID: in.TaxID,
	}
}
