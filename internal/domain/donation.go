package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus enumerates donation lifecycle states. Transitions are
// created -> paid and created -> failed; paid and failed are terminal.
type DonationStatus string

const (
	DonationCreated DonationStatus = "created"
	DonationPaid    DonationStatus = "paid"
	DonationFailed  DonationStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s DonationStatus) Terminal() bool {
	return s == DonationPaid || s == DonationFailed
}

// Donation is a contribution towards a project, settled through the payment gateway.
type Donation struct {
	ID           string
	UserID       string
	ProjectID    string
	ProjectTitle string
	Amount       decimal.Decimal
	OrderID      *string
	PaymentID    *string
	Status       DonationStatus
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DonationTotals aggregates paid donations for a project.
type DonationTotals struct {
	Count int
	Sum   decimal.Decimal
}
