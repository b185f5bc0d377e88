package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"impacthub/internal/domain"
	"impacthub/internal/infra"
	"impacthub/internal/sqlinline"
)

// DonationRepositoryPG implements DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a new donation record in the created state.
func (r *DonationRepositoryPG) Create(ctx context.Context, d *domain.Donation) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		d.UserID,
		d.ProjectID,
		d.Amount.StringFixed(2),
		d.OrderID,
		d.Country,
	)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		// order ids come from the gateway, so a duplicate is its fault
		if infra.IsUniqueViolation(err) {
			return fmt.Errorf("duplicate gateway order: %w", domain.ErrUpstream)
		}
		return err
	}
	d.Status = domain.DonationCreated
	return nil
}

func (r *DonationRepositoryPG) GetByIDAndOrder(ctx context.Context, id, orderID string) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByIDAndOrder, id, orderID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// Transition applies a created -> paid|failed move. The update is conditional
// on the created state, so it reports false when another request won the race
// or the donation was already terminal.
func (r *DonationRepositoryPG) Transition(ctx context.Context, id, orderID string, to domain.DonationStatus, paymentID *string) (bool, error) {
	if !to.Terminal() {
		return false, fmt.Errorf("transition to %q: %w", to, domain.ErrInvalidRequest)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QTransitionDonation, id, orderID, string(to), paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns recent donations limited by the input value.
func (r *DonationRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByUser, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *DonationRepositoryPG) TotalsForProject(ctx context.Context, projectID string) (domain.DonationTotals, error) {
	var (
		totals domain.DonationTotals
		sum    string
	)
	if err := r.sql.QueryRow(ctx, sqlinline.QDonationTotalsByProject, projectID).Scan(&totals.Count, &sum); err != nil {
		return totals, err
	}
	parsed, err := decimal.NewFromString(sum)
	if err != nil {
		return totals, fmt.Errorf("parse donation total %q: %w", sum, err)
	}
	totals.Sum = parsed
	return totals, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var (
		d      domain.Donation
		amount string
		status string
	)
	if err := row.Scan(
		&d.ID, &d.UserID, &d.ProjectID, &d.ProjectTitle, &amount, &d.OrderID, &d.PaymentID,
		&status, &d.Country, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse donation amount %q: %w", amount, err)
	}
	d.Amount = parsed
	d.Status = domain.DonationStatus(status)
	return &d, nil
}
