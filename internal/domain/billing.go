package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingStatus string

// PENDING and PAID are the states this service sets itself. Anything else is
// whatever the gateway reported and is stored verbatim.
const (
	BillingPending   BillingStatus = "PENDING"
	BillingPaid      BillingStatus = "PAID"
	BillingExpired   BillingStatus = "EXPIRED"
	BillingCancelled BillingStatus = "CANCELLED"
	BillingRefunded  BillingStatus = "REFUNDED"
)

// CoursePrice is the fixed checkout price in BRL.
var CoursePrice = decimal.RequireFromString("9.90")

type Billing struct {
	ID           uuid.UUID     `json:"id"`
	CustomerID   uuid.UUID     `json:"customerId"`
	Amount       string        `json:"amount"`
	Status       BillingStatus `json:"status"`
	AbacatePayID string        `json:"abacatePayId,omitempty"`
	PixCode      string        `json:"pixCode,omitempty"`
	QRCodeURL    string        `json:"qrCodeUrl,omitempty"`
	CreatedAt    time.Time     `json:"-"`
	UpdatedAt    time.Time     `json:"-"`
}

// BillingPatch carries the fields to merge into a stored Billing. Nil fields
// are left untouched.
type BillingPatch struct {
	Status       *BillingStatus
	AbacatePayID *string
	PixCode      *string
	QRCodeURL    *string
}

func NewBilling(customerID uuid.UUID, price decimal.Decimal) *Billing {
	return &Billing{
		CustomerID: customerID,
		Amount:     price.StringFixed(2),
		Status:     BillingPending,
	}
}

// Apply merges the patch into b.
func (p BillingPatch) Apply(b *Billing) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.AbacatePayID != nil {
		b.AbacatePayID = *p.AbacatePayID
	}
	if p.PixCode != nil {
		b.PixCode = *p.PixCode
	}
	if p.QRCodeURL != nil {
		b.QRCodeURL = *p.QRCodeURL
	}
}

func (b *Billing) IsPaid() bool {
	return b.Status == BillingPaid
}

// Cents converts a BRL amount to the minor units the gateway expects.
func Cents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
