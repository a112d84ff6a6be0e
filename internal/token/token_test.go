package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: []byte("test-secret"), TTL: ttl})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)
}

func TestNewServiceDefaultTTL(t *testing.T) {
	svc, err := NewService(Config{Secret: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, svc.TTL())
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newService(t, time.Hour)

	tok, err := svc.Issue(42, "a@x.com")
	require.NoError(t, err)

	claims, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	svc := newService(t, -time.Minute)

	tok, err := svc.Issue(1, "a@x.com")
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := newService(t, time.Hour)
	other, err := NewService(Config{Secret: []byte("other-secret")})
	require.NoError(t, err)

	tok, err := other.Issue(1, "a@x.com")
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTamperedPayload(t *testing.T) {
	svc := newService(t, time.Hour)

	tok, err := svc.Issue(1, "a@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	// Payload altered, signature untouched.
	tampered := parts[0] + ".eyJpZCI6OTk5fQ." + parts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	svc := newService(t, time.Hour)

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	svc := newService(t, time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
		Email:  "a@x.com",
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, errors.Is(err, ErrExpiredToken))
}
