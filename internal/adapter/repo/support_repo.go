package repo

import (
	"context"

	"impacthub/internal/infra"
	"impacthub/internal/sqlinline"
)

// SupportRepositoryPG implements domain.SupportRepository.
type SupportRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSupportRepository(sql infra.SQLExecutor) *SupportRepositoryPG {
	return &SupportRepositoryPG{sql: sql}
}

// Add records a support; the unique (project_id, user_id) pair makes repeats a no-op.
func (r *SupportRepositoryPG) Add(ctx context.Context, projectID, userID string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertSupport, projectID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
