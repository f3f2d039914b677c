package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"docstore-payments/internal/domain"
)

// AuthManager resolves the buyer's identity from the Authorization header.
// Tokens are HS256 JWTs minted by the auth service; the subject claim is the
// user id. The client body is never trusted for identity.
type AuthManager struct {
	hmacSecret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{hmacSecret: []byte(secret)}
}

type userClaims struct {
	jwt.RegisteredClaims
}

// UserID extracts and verifies the bearer token, returning the user id.
func (a *AuthManager) UserID(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return "", domain.ErrUnauthorized
	}
	tok := strings.TrimSpace(hdr[7:])

	claims := &userClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.hmacSecret, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
