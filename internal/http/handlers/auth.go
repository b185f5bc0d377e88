package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"impacthub/internal/domain"
	"impacthub/internal/infra"
	"impacthub/internal/middleware"
)

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

type authResponse struct {
	User    userDTO `json:"user"`
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
	}
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || len(req.Username) > 150 {
		a.error(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		a.error(w, http.StatusBadRequest, "invalid_request", "a valid email is required")
		return
	}
	hash, err := infra.HashPassword(req.Password)
	if errors.Is(err, infra.ErrPasswordTooShort) {
		a.error(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	user := &domain.User{
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			a.error(w, http.StatusBadRequest, "conflict", "username or email already registered")
			return
		}
		a.fail(w, r, err, "")
		return
	}
	pair, err := a.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.Logger.Info().Str("user_id", user.ID).Msg("user registered")
	a.json(w, http.StatusCreated, authResponse{User: toUserDTO(*user), Access: pair.Access, Refresh: pair.Refresh})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.Users.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.fail(w, r, err, "")
		return
	}
	if user == nil || !infra.CheckPassword(user.PasswordHash, req.Password) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	pair, err := a.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		a.fail(w, r, err, "")
		return
	}
	a.json(w, http.StatusOK, authResponse{User: toUserDTO(*user), Access: pair.Access, Refresh: pair.Refresh})
}

func (a *App) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Refresh) == "" {
		a.error(w, http.StatusBadRequest, "invalid_request", "refresh token required")
		return
	}
	access, err := a.Tokens.Refresh(req.Refresh)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"access": access})
}

// TokenVerify accepts either token kind and reports whether it is still valid.
func (a *App) TokenVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	claims, err := middleware.VerifyJWT(a.Tokens.Secret, req.Token)
	if err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "token is invalid or expired")
		return
	}
	resp := map[string]any{"valid": true, "token_type": claims.TokenType}
	if claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	a.json(w, http.StatusOK, resp)
}

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.GetByID(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err, "user not found")
		return
	}
	a.json(w, http.StatusOK, toUserDTO(*user))
}
