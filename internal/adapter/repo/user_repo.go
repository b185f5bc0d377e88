package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"impacthub/internal/domain"
	"impacthub/internal/infra"
	"impacthub/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts the user and fills in the generated id and timestamps.
// A duplicate username or email yields domain.ErrConflict.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, domain.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// GetByUsername fetches a user by username, case-insensitively.
func (r *UserRepositoryPG) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByUsername, username))
}

// SetAdmin toggles the admin flag for the user matching username or email.
func (r *UserRepositoryPG) SetAdmin(ctx context.Context, identity string, admin bool) (*domain.User, error) {
	var u domain.User
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUserAdmin, identity, admin)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
