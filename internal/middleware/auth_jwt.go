package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenClaims are the claims carried by access and refresh tokens.
type TokenClaims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type userKey string

const (
	userIDKey   userKey = "user_id"
	usernameKey userKey = "username"
)

var (
	errInvalidToken = errors.New("invalid token")
	errWrongType    = errors.New("wrong token type")
)

func SignJWT(secret string, claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyJWT parses an HS256 token and checks signature and expiry.
func VerifyJWT(secret, token string) (*TokenClaims, error) {
	var claims TokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return &claims, nil
}

// TokenIssuer mints access/refresh pairs.
type TokenIssuer struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (i TokenIssuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i TokenIssuer) sign(userID, username, kind string, ttl time.Duration) (string, error) {
	now := i.now()
	return SignJWT(i.Secret, TokenClaims{
		Username:  username,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

func (i TokenIssuer) Issue(userID, username string) (TokenPair, error) {
	access, err := i.sign(userID, username, TokenAccess, i.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, username, TokenRefresh, i.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh validates a refresh token and returns a new access token.
func (i TokenIssuer) Refresh(refreshToken string) (string, error) {
	claims, err := VerifyJWT(i.Secret, refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenRefresh {
		return "", errWrongType
	}
	return i.sign(claims.Subject, claims.Username, TokenAccess, i.AccessTTL)
}

// AuthJWT requires a valid access token.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return authJWT(secret, true)
}

// OptionalAuthJWT attaches the user when a valid access token is present and
// lets anonymous requests through. A present but invalid token is rejected.
func OptionalAuthJWT(secret string) func(http.Handler) http.Handler {
	return authJWT(secret, false)
}

func authJWT(secret string, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if required {
					unauthorized(w, "missing authorization")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "invalid authorization")
				return
			}
			claims, err := VerifyJWT(secret, strings.TrimSpace(token))
			if err != nil || claims.TokenType != TokenAccess {
				unauthorized(w, "invalid token")
				return
			}
			noteUser(r.Context(), claims.Subject)
			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": "unauthorized"})
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
