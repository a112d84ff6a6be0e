// Package token issues and verifies the HS256 bearer tokens accepted by the
// gateway. The signing secret and lifetime are injected at construction so
// tests and key rotation never touch package state.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is the single outcome callers may surface to clients.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken distinguishes expiry for internal logging only.
	ErrExpiredToken = errors.New("token expired")
)

// DefaultTTL matches the lifetime of previously issued tokens.
const DefaultTTL = 24 * time.Hour

// Config holds the process-wide signing parameters.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Claims embeds the registered claim set plus the gateway's user claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// Service signs and verifies bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService constructs a Service from config, applying the default lifetime
// when none is set.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret must not be empty")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: cfg.Secret, ttl: ttl}, nil
}

// TTL reports the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token over the given user identity with issued-at and
// expiry claims.
func (s *Service) Issue(userID int64, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
		Email:  email,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// Every failure mode maps to ErrInvalidToken; expiry additionally matches
// ErrExpiredToken so callers can log it apart without leaking the
// distinction to clients.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
