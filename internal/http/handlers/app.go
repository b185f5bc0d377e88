package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"impacthub/internal/domain"
	"impacthub/internal/donation"
	"impacthub/internal/impactgate"
	"impacthub/internal/middleware"
	"impacthub/internal/providers/impact"
)

// ImageStore stores uploaded project images.
type ImageStore interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
	URL(key string) string
}

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the collaborators every handler needs.
type App struct {
	Logger     zerolog.Logger
	Users      domain.UserRepository
	Projects   domain.ProjectRepository
	Comments   domain.CommentRepository
	Supports   domain.SupportRepository
	Gate       *impactgate.Gate
	Classifier impact.Classifier
	Donations  *donation.Manager
	Tokens     middleware.TokenIssuer
	Images     ImageStore
	DB         Pinger
}

const maxJSONBody = 1 << 20

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": message, "code": code})
}

// decode reads a JSON body into dst. Unknown fields are allowed so clients
// can send extra form state.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// pathID returns the {id} URL parameter when it is a well-formed UUID.
func pathID(r *http.Request, name string) (string, bool) {
	raw := strings.TrimSpace(urlParam(r, name))
	if _, err := uuid.Parse(raw); err != nil {
		return "", false
	}
	return raw, true
}

func validUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// fail maps domain errors onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		if notFoundMsg == "" {
			notFoundMsg = "not found"
		}
		a.error(w, http.StatusNotFound, "not_found", notFoundMsg)
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "not allowed")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusBadRequest, "conflict", "already exists")
	case errors.Is(err, domain.ErrDonationFinalized):
		a.error(w, http.StatusConflict, "donation_finalized", "Donation already finalized.")
	default:
		a.Logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func userNameFrom(r *http.Request) string {
	return middleware.UsernameFromContext(r.Context())
}
