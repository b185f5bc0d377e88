package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, viewerID string, limit int) ([]ProjectSummary, error)
	Summary(ctx context.Context, id, viewerID string) (*ProjectSummary, error)
	ListByCreator(ctx context.Context, userID string, limit int) ([]ProjectSummary, error)
	ListSupportedBy(ctx context.Context, userID string, limit int) ([]ProjectSummary, error)
	StatsForUser(ctx context.Context, userID string) (UserStats, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists project comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByProject(ctx context.Context, projectID string) ([]Comment, error)
}

// SupportRepository records project supports. Add reports whether a new
// support was created (false when the user already supported the project).
type SupportRepository interface {
	Add(ctx context.Context, projectID, userID string) (bool, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	GetByIDAndOrder(ctx context.Context, id, orderID string) (*Donation, error)
	// Transition moves a donation out of the created state. It returns
	// false when the donation was no longer in the created state.
	Transition(ctx context.Context, id, orderID string, to DonationStatus, paymentID *string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Donation, error)
	TotalsForProject(ctx context.Context, projectID string) (DonationTotals, error)
}
