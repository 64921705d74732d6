// Package auth resolves the acting identity of a request from a bearer token.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hotel_booking/internal/domain"
)

var ErrNoToken = errors.New("no bearer token")

// Claims is the token payload: the user id and role.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct{ secret []byte }

func NewVerifier(secret string) *Verifier { return &Verifier{secret: []byte(secret)} }

// Verify checks the signature and expiry of raw and returns its identity.
// Tokens without a role act as plain users.
func (v *Verifier) Verify(raw string) (domain.Identity, error) {
	if len(v.secret) == 0 {
		return domain.Identity{}, errors.New("verifier has no secret")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid || claims.ID == "" {
		return domain.Identity{}, errors.New("invalid token")
	}
	role := claims.Role
	if role == "" {
		role = domain.RoleUser
	}
	return domain.Identity{ID: claims.ID, Role: role}, nil
}

// Sign mints a token for who. Login is handled elsewhere; this serves local
// tooling and tests.
func Sign(secret string, who domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:   who.ID,
		Role: who.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, who domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

func FromContext(ctx context.Context) (domain.Identity, bool) {
	who, ok := ctx.Value(ctxKey{}).(domain.Identity)
	return who, ok
}
