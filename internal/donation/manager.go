// Package donation runs the donation lifecycle: a gateway order is opened,
// a pending donation recorded, and the donation settled once the client
// returns a signed payment.
package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"impacthub/internal/domain"
)

const (
	DefaultCurrency    = "INR"
	DefaultMinMinor    = 200
	recentDonationsCap = 20
)

// Amounts must fit numeric(10,2). Both bounds are checked on the exponent
// and digit count before any rescaling.
const (
	maxIntegerDigits  = 8
	maxFractionDigits = 32
)

// OrderRequest is what the gateway needs to open an order.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's view of an opened order.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// Gateway is the payment provider contract.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	// VerifySignature returns domain.ErrSignatureMismatch for a forged or
	// mismatched signature.
	VerifySignature(orderID, paymentID, signature string) error
	PublicKey() string
}

// Checkout is returned to the client to open the gateway's checkout widget.
type Checkout struct {
	OrderID     string
	GatewayKey  string
	DonationID  string
	AmountMinor int64
	Currency    string
}

type Options struct {
	Currency string
	MinMinor int64
	Logger   zerolog.Logger
}

type Manager struct {
	gateway   Gateway
	projects  domain.ProjectRepository
	donations domain.DonationRepository
	currency  string
	minMinor  int64
	log       zerolog.Logger
}

func NewManager(gateway Gateway, projects domain.ProjectRepository, donations domain.DonationRepository, opts Options) *Manager {
	currency := strings.ToUpper(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	minMinor := opts.MinMinor
	if minMinor <= 0 {
		minMinor = DefaultMinMinor
	}
	return &Manager{
		gateway:   gateway,
		projects:  projects,
		donations: donations,
		currency:  currency,
		minMinor:  minMinor,
		log:       opts.Logger,
	}
}

// MinorUnits converts a major-unit amount to minor units, truncating any
// fraction below one minor unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Truncate(0).IntPart()
}

func checkMagnitude(amount decimal.Decimal) error {
	exp := int64(amount.Exponent())
	if exp < -maxFractionDigits {
		return domain.Invalid("amount", "has too many decimal places")
	}
	if int64(amount.NumDigits())+exp > maxIntegerDigits {
		return domain.Invalid("amount", "is too large")
	}
	return nil
}

// CreateOrder opens a gateway order for the project and records a pending
// donation. Nothing is stored when the gateway call fails.
func (m *Manager) CreateOrder(ctx context.Context, userID, projectID string, amount decimal.Decimal, country string) (*Checkout, error) {
	if _, err := m.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	belowMinimum := domain.Invalid("amount", fmt.Sprintf("Minimum donation is %s %s.", decimal.New(m.minMinor, -2).String(), m.currency))
	if amount.Sign() <= 0 {
		return nil, belowMinimum
	}
	if err := checkMagnitude(amount); err != nil {
		return nil, err
	}
	minor := MinorUnits(amount)
	if minor < m.minMinor {
		return nil, belowMinimum
	}

	receipt := uuid.NewString()
	order, err := m.gateway.CreateOrder(ctx, OrderRequest{
		AmountMinor: minor,
		Currency:    m.currency,
		Receipt:     receipt,
		Notes:       map[string]string{"project_id": projectID, "user_id": userID},
	})
	if err != nil {
		m.log.Error().Err(err).Str("project_id", projectID).Int64("amount_minor", minor).Msg("gateway order failed")
		return nil, fmt.Errorf("create gateway order: %v: %w", err, domain.ErrUpstream)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway returned an order without id: %w", domain.ErrUpstream)
	}

	orderID := order.ID
	d := &domain.Donation{
		UserID:    userID,
		ProjectID: projectID,
		Amount:    amount.Truncate(2),
		OrderID:   &orderID,
		Status:    domain.DonationCreated,
		Country:   country,
	}
	if err := m.donations.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("record donation: %w", err)
	}

	m.log.Info().
		Str("donation_id", d.ID).
		Str("order_id", orderID).
		Str("project_id", projectID).
		Int64("amount_minor", minor).
		Msg("donation order created")

	return &Checkout{
		OrderID:     orderID,
		GatewayKey:  m.gateway.PublicKey(),
		DonationID:  d.ID,
		AmountMinor: minor,
		Currency:    m.currency,
	}, nil
}

// VerifyPayment settles a pending donation. A valid signature moves it to
// paid; an invalid one moves it to failed and returns
// domain.ErrSignatureMismatch. Terminal donations are never changed and
// report domain.ErrDonationFinalized.
func (m *Manager) VerifyPayment(ctx context.Context, donationID, orderID, paymentID, signature string) (*domain.Donation, error) {
	if donationID == "" || orderID == "" {
		return nil, domain.ErrNotFound
	}
	d, err := m.donations.GetByIDAndOrder(ctx, donationID, orderID)
	if err != nil {
		return nil, err
	}
	if d.Status.Terminal() {
		return d, domain.ErrDonationFinalized
	}

	verifyErr := m.gateway.VerifySignature(orderID, paymentID, signature)
	switch {
	case verifyErr == nil:
		pid := paymentID
		ok, err := m.donations.Transition(ctx, donationID, orderID, domain.DonationPaid, &pid)
		if err != nil {
			return nil, fmt.Errorf("mark donation paid: %w", err)
		}
		if !ok {
			return nil, domain.ErrDonationFinalized
		}
		d.Status = domain.DonationPaid
		d.PaymentID = &pid
		m.log.Info().Str("donation_id", donationID).Str("order_id", orderID).Msg("donation paid")
		return d, nil

	case errors.Is(verifyErr, domain.ErrSignatureMismatch):
		ok, err := m.donations.Transition(ctx, donationID, orderID, domain.DonationFailed, nil)
		if err != nil {
			return nil, fmt.Errorf("mark donation failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDonationFinalized
		}
		d.Status = domain.DonationFailed
		m.log.Warn().Str("donation_id", donationID).Str("order_id", orderID).Msg("donation signature mismatch")
		return d, domain.ErrSignatureMismatch
	}
	return nil, fmt.Errorf("verify signature: %v: %w", verifyErr, domain.ErrUpstream)
}

// ListMine returns the caller's most recent donations, newest first.
func (m *Manager) ListMine(ctx context.Context, userID string) ([]domain.Donation, error) {
	return m.donations.ListByUser(ctx, userID, recentDonationsCap)
}

// ProjectTotals aggregates paid donations for a project.
func (m *Manager) ProjectTotals(ctx context.Context, projectID string) (domain.DonationTotals, error) {
	return m.donations.TotalsForProject(ctx, projectID)
}
