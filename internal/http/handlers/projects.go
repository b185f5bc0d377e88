package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"impacthub/internal/domain"
	"impacthub/internal/impactgate"
)

const projectListLimit = 100

type projectRequest struct {
	Title       *string `json:"title"`
	ImpactArea  *string `json:"impact_area"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// area accepts the legacy "category" name used by older clients.
func (p projectRequest) area() *string {
	if p.ImpactArea != nil {
		return p.ImpactArea
	}
	return p.Category
}

type creatorDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type projectDTO struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	ImpactArea      string       `json:"impact_area"`
	Description     string       `json:"description"`
	ImageURL        *string      `json:"image_url"`
	CreatedAt       time.Time    `json:"created_at"`
	Creator         *creatorDTO  `json:"creator,omitempty"`
	SupportersCount int          `json:"supporters_count"`
	IsSupported     bool         `json:"is_supported"`
	Comments        []commentDTO `json:"comments,omitempty"`
	DonationsTotal  string       `json:"donations_total,omitempty"`
	DonationsCount  *int         `json:"donations_count,omitempty"`
}

type rejectionResponse struct {
	Error           string `json:"error"`
	Code            string `json:"code"`
	Reason          string `json:"reason,omitempty"`
	Text            string `json:"text,omitempty"`
	ClassifierError string `json:"classifier_error,omitempty"`
}

func toProjectDTO(p domain.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Title:       p.Title,
		ImpactArea:  p.ImpactArea,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

func toSummaryDTOs(items []domain.ProjectSummary) []projectDTO {
	out := make([]projectDTO, 0, len(items))
	for _, s := range items {
		dto := toProjectDTO(s.Project)
		dto.Creator = &creatorDTO{ID: s.UserID}
		dto.SupportersCount = s.SupportersCount
		dto.IsSupported = s.IsSupported
		out = append(out, dto)
	}
	return out
}

func (a *App) ProjectsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Projects.List(r.Context(), a.currentUserID(r), projectListLimit)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, toSummaryDTOs(items))
}

func (a *App) ProjectsDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return
	}
	ctx := r.Context()
	summary, err := a.Projects.Summary(ctx, id, a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err, "project not found")
		return
	}
	dto := toSummaryDTOs([]domain.ProjectSummary{*summary})[0]
	if creator, err := a.Users.GetByID(ctx, summary.UserID); err == nil {
		dto.Creator.Username = creator.Username
	} else if !errors.Is(err, domain.ErrNotFound) {
		a.fail(w, r, err, "")
		return
	}
	comments, err := a.Comments.ListByProject(ctx, id)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	dto.Comments = toCommentDTOs(comments)
	if a.Donations != nil {
		totals, err := a.Donations.ProjectTotals(ctx, id)
		if err != nil {
			a.fail(w, r, err, "")
			return
		}
		dto.DonationsTotal = totals.Sum.StringFixed(2)
		count := totals.Count
		dto.DonationsCount = &count
	}
	a.json(w, http.StatusOK, dto)
}

func (a *App) ProjectsCreate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !a.decode(w, r, &req) {
		return
	}
	draft := domain.ProjectDraft{
		Title:       deref(req.Title),
		ImpactArea:  deref(req.area()),
		Description: deref(req.Description),
		ImageURL:    req.ImageURL,
	}
	project, err := a.Gate.Create(r.Context(), draft, a.currentUserID(r))
	var rej *impactgate.RejectionError
	if errors.As(err, &rej) {
		code := "not_impactful"
		if rej.Ambiguous {
			code = "classification_ambiguous"
		}
		a.json(w, http.StatusBadRequest, rejectionResponse{
			Error:           rej.Error(),
			Code:            code,
			Reason:          rej.Reason,
			Text:            rej.Text,
			ClassifierError: rej.ClassifierError,
		})
		return
	}
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	dto := toProjectDTO(*project)
	dto.Creator = &creatorDTO{ID: project.UserID, Username: userNameFrom(r)}
	a.json(w, http.StatusCreated, dto)
}

// ProjectsUpdate serves both PUT (all fields required) and PATCH.
func (a *App) ProjectsUpdate(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownedProject(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if !a.decode(w, r, &req) {
		return
	}
	if r.Method == http.MethodPut && (req.Title == nil || req.area() == nil || req.Description == nil) {
		a.error(w, http.StatusBadRequest, "invalid_request", "title, impact_area and description are required")
		return
	}
	draft := domain.ProjectDraft{
		Title:       project.Title,
		ImpactArea:  project.ImpactArea,
		Description: project.Description,
		ImageURL:    project.ImageURL,
	}
	if req.Title != nil {
		draft.Title = *req.Title
	}
	if v := req.area(); v != nil {
		draft.ImpactArea = *v
	}
	if req.Description != nil {
		draft.Description = *req.Description
	}
	if req.ImageURL != nil || r.Method == http.MethodPut {
		draft.ImageURL = req.ImageURL
	}
	draft, err := impactgate.NormalizeDraft(draft)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	project.Title = draft.Title
	project.ImpactArea = draft.ImpactArea
	project.Description = draft.Description
	project.ImageURL = draft.ImageURL
	if err := a.Projects.Update(r.Context(), project); err != nil {
		a.fail(w, r, err, "project not found")
		return
	}
	a.json(w, http.StatusOK, toProjectDTO(*project))
}

func (a *App) ProjectsDelete(w http.ResponseWriter, r *http.Request) {
	project, ok := a.ownedProject(w, r)
	if !ok {
		return
	}
	if err := a.Projects.Delete(r.Context(), project.ID); err != nil {
		a.fail(w, r, err, "project not found")
		return
	}
	a.Logger.Info().Str("project_id", project.ID).Str("user_id", a.currentUserID(r)).Msg("project deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ownedProject loads the {id} project and checks the caller is its creator
// or an admin.
func (a *App) ownedProject(w http.ResponseWriter, r *http.Request) (*domain.Project, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return nil, false
	}
	project, err := a.Projects.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "project not found")
		return nil, false
	}
	userID := a.currentUserID(r)
	if project.UserID == userID {
		return project, true
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.fail(w, r, err, "")
		return nil, false
	}
	if user == nil || !user.IsAdmin {
		a.error(w, http.StatusForbidden, "forbidden", "only the creator can modify this project")
		return nil, false
	}
	return project, true
}

func (a *App) ProjectsSupport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return
	}
	if _, err := a.Projects.GetByID(r.Context(), id); err != nil {
		a.fail(w, r, err, "project not found")
		return
	}
	created, err := a.Supports.Add(r.Context(), id, a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	if !created {
		a.json(w, http.StatusOK, map[string]string{"status": "already supported"})
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"status": "project supported"})
}

func (a *App) ProjectsMine(w http.ResponseWriter, r *http.Request) {
	items, err := a.Projects.ListByCreator(r.Context(), a.currentUserID(r), projectListLimit)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, toSummaryDTOs(items))
}

func (a *App) ProjectsSupported(w http.ResponseWriter, r *http.Request) {
	items, err := a.Projects.ListSupportedBy(r.Context(), a.currentUserID(r), projectListLimit)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, toSummaryDTOs(items))
}

func (a *App) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Projects.StatsForUser(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, map[string]int{
		"totalProjects":  stats.ProjectsCreated,
		"totalSupported": stats.ProjectsSupported,
		"impactReach":    stats.Reach,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
