package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"impacthub/internal/domain"
	"impacthub/internal/infra"
	"impacthub/internal/sqlinline"
)

// ProjectRepositoryPG implements domain.ProjectRepository.
type ProjectRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProjectRepository(sql infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{sql: sql}
}

func (r *ProjectRepositoryPG) Create(ctx context.Context, p *domain.Project) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertProject, p.UserID, p.Title, p.ImpactArea, p.Description, p.ImageURL)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProjectByID, id)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.ImpactArea, &p.Description, &p.ImageURL, &p.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns the newest projects first. viewerID may be empty for anonymous callers.
func (r *ProjectRepositoryPG) List(ctx context.Context, viewerID string, limit int) ([]domain.ProjectSummary, error) {
	return r.listSummaries(ctx, sqlinline.QListProjects, viewerID, limit)
}

func (r *ProjectRepositoryPG) ListByCreator(ctx context.Context, userID string, limit int) ([]domain.ProjectSummary, error) {
	return r.listSummaries(ctx, sqlinline.QListProjectsByCreator, userID, limit)
}

// ListSupportedBy returns projects the user supported, most recent support first.
func (r *ProjectRepositoryPG) ListSupportedBy(ctx context.Context, userID string, limit int) ([]domain.ProjectSummary, error) {
	return r.listSummaries(ctx, sqlinline.QListProjectsSupportedBy, userID, limit)
}

func (r *ProjectRepositoryPG) StatsForUser(ctx context.Context, userID string) (domain.UserStats, error) {
	var st domain.UserStats
	err := r.sql.QueryRow(ctx, sqlinline.QSelectUserProjectStats, userID).Scan(&st.ProjectsCreated, &st.ProjectsSupported, &st.Reach)
	return st, err
}

func (r *ProjectRepositoryPG) listSummaries(ctx context.Context, query, userID string, limit int) ([]domain.ProjectSummary, error) {
	rows, err := r.sql.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ProjectSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ProjectRepositoryPG) Summary(ctx context.Context, id, viewerID string) (*domain.ProjectSummary, error) {
	s, err := scanSummary(r.sql.QueryRow(ctx, sqlinline.QSelectProjectSummary, viewerID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *ProjectRepositoryPG) Update(ctx context.Context, p *domain.Project) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateProject, p.ID, p.Title, p.ImpactArea, p.Description, p.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProjectRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteProject, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSummary(row pgx.Row) (*domain.ProjectSummary, error) {
	var s domain.ProjectSummary
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.ImpactArea, &s.Description, &s.ImageURL, &s.CreatedAt,
		&s.SupportersCount, &s.IsSupported,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
