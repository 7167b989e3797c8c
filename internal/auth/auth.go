package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fleetops/fueltrack/internal/httpx"
)

type ctxKey string

const identityCtxKey = ctxKey("identity")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID uint
	Role   string
}

type claims struct {
	UserID uint   `json:"employee_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserVerifier is an optional callback to validate that a token's user still
// exists. Set during bootstrap via SetUserVerifier; if nil, no extra
// verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

// Manager signs and verifies bearer tokens.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	verifier UserVerifier
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), ttl: 24 * time.Hour}
}

func (m *Manager) SetUserVerifier(v UserVerifier) { m.verifier = v }

// Sign issues a token for the given user.
func (m *Manager) Sign(userID uint, role string) (string, error) {
	now := time.Now()
	c := claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Parse verifies a token string and returns the embedded identity.
func (m *Manager) Parse(tokenStr string) (Identity, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if c.UserID == 0 {
		return Identity{}, errors.New("token missing user id")
	}
	return Identity{UserID: c.UserID, Role: c.Role}, nil
}

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext extracts the caller identity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok
}

// Middleware requires a valid Bearer token and attaches the identity to the
// request context. If a user verifier is configured the token's user must
// still exist.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.Error(w, http.StatusUnauthorized, "You are not logged in. Please login to get access.")
			return
		}
		id, err := m.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.Error(w, http.StatusUnauthorized, "Invalid token. Please log in again.")
			return
		}
		if m.verifier != nil && !m.verifier(r.Context(), id.UserID) {
			httpx.Error(w, http.StatusUnauthorized, "The user belonging to this token no longer exists.")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole restricts a route to the named roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "You are not logged in. Please login to get access.")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Error(w, http.StatusForbidden, "You do not have permission to perform this action")
		})
	}
}
