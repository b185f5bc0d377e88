package handlers

import (
	"net/http"
	"strings"
	"time"

	"impacthub/internal/domain"
)

const maxCommentLength = 2000

type commentUserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type commentDTO struct {
	ID        string         `json:"id"`
	User      commentUserDTO `json:"user"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// commentRequest accepts both field names seen from clients.
type commentRequest struct {
	Content     string `json:"content"`
	CommentText string `json:"comment_text"`
}

func toCommentDTOs(items []domain.Comment) []commentDTO {
	out := make([]commentDTO, 0, len(items))
	for _, c := range items {
		out = append(out, commentDTO{
			ID: c.ID,
			User: commentUserDTO{
				ID:        c.Author.ID,
				Username:  c.Author.Username,
				FirstName: c.Author.FirstName,
				LastName:  c.Author.LastName,
			},
			Content:   c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

func (a *App) CommentsList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return
	}
	items, err := a.Comments.ListByProject(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, toCommentDTOs(items))
}

func (a *App) CommentsCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "project not found")
		return
	}
	var req commentRequest
	if !a.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Content)
	if text == "" {
		text = strings.TrimSpace(req.CommentText)
	}
	if text == "" {
		a.error(w, http.StatusBadRequest, "invalid_request", "Comment cannot be empty.")
		return
	}
	if len(text) > maxCommentLength {
		a.error(w, http.StatusBadRequest, "invalid_request", "comment is too long")
		return
	}
	ctx := r.Context()
	if _, err := a.Projects.GetByID(ctx, id); err != nil {
		a.fail(w, r, err, "project not found")
		return
	}
	comment := &domain.Comment{ProjectID: id, UserID: a.currentUserID(r), Text: text}
	if err := a.Comments.Create(ctx, comment); err != nil {
		a.fail(w, r, err, "")
		return
	}
	if user, err := a.Users.GetByID(ctx, comment.UserID); err == nil {
		comment.Author = *user
	} else {
		comment.Author = domain.User{ID: comment.UserID, Username: userNameFrom(r)}
	}
	a.json(w, http.StatusCreated, toCommentDTOs([]domain.Comment{*comment})[0])
}
