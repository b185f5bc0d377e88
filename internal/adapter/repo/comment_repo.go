package repo

import (
	"context"

	"impacthub/internal/domain"
	"impacthub/internal/infra"
	"impacthub/internal/sqlinline"
)

// CommentRepositoryPG implements domain.CommentRepository.
type CommentRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewCommentRepository(sql infra.SQLExecutor) *CommentRepositoryPG {
	return &CommentRepositoryPG{sql: sql}
}

func (r *CommentRepositoryPG) Create(ctx context.Context, c *domain.Comment) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertComment, c.ProjectID, c.UserID, c.Text)
	return row.Scan(&c.ID, &c.CreatedAt)
}

// ListByProject returns comments oldest first with their authors.
func (r *CommentRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.Comment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCommentsByProject, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.UserID, &c.Text, &c.CreatedAt,
			&c.Author.Username, &c.Author.Email, &c.Author.FirstName, &c.Author.LastName,
		); err != nil {
			return nil, err
		}
		c.Author.ID = c.UserID
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
