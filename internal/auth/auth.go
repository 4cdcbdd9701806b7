// internal/auth/auth.go
//
// Package auth issues and verifies the session tokens that bind a
// WebSocket connection to a wallet address. Tokens are HS256 JWTs; the
// wallet is the subject claim.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("auth: JWT secret not configured")
	ErrInvalidToken  = errors.New("auth: invalid token")
)

// Authenticator signs and verifies session tokens with a shared secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// New creates an Authenticator. ttl bounds token lifetime; zero means 24h.
func New(secret string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken creates a signed token for the given wallet.
func (a *Authenticator) IssueToken(wallet string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   wallet,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken validates a token and returns the wallet it was issued to.
func (a *Authenticator) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return a.secret, nil
		})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
