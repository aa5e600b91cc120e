package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ticket-engine/booking"
)

var issuedAt = time.Date(2030, time.January, 5, 9, 0, 0, 0, time.UTC)

func newTestVerifier() *JWTVerifier {
	return NewJWTVerifier("test-secret", "ticket-engine").WithClock(func() time.Time { return issuedAt })
}

func TestVerify_RoundTrip(t *testing.T) {
	v := newTestVerifier()

	token, err := v.Issue("user-42", time.Hour)
	require.NoError(t, err)

	uid, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, booking.UserID("user-42"), uid)
}

func TestVerify_ErrorCodes(t *testing.T) {
	v := newTestVerifier()
	valid, err := v.Issue("user-42", time.Hour)
	require.NoError(t, err)

	otherKey, err := NewJWTVerifier("other-secret", "ticket-engine").
		WithClock(func() time.Time { return issuedAt }).Issue("user-42", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewJWTVerifier("test-secret", "someone-else").
		WithClock(func() time.Time { return issuedAt }).Issue("user-42", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "ticket-engine",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    "ticket-engine",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *JWTVerifier
		token    string
		wantCode string
	}{
		{"empty", v, "", CodeArgumentError},
		{"blank", v, "   ", CodeArgumentError},
		{"garbage", v, "not-a-token", CodeArgumentError},
		{"expired", v.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }), valid, CodeTokenExpired},
		{"wrong key", v, otherKey, CodeInvalidSignature},
		{"wrong algorithm", v, hs512, CodeInvalidSignature},
		{"wrong issuer", v, otherIssuer, CodeInvalidClaims},
		{"no subject", v, noSubject, CodeInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)

			var authErr *Error
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.wantCode, authErr.Code)
		})
	}
}

func TestVerify_NoIssuerConfigured(t *testing.T) {
	signer := NewJWTVerifier("secret", "anyone").WithClock(func() time.Time { return issuedAt })
	token, err := signer.Issue("user-1", time.Hour)
	require.NoError(t, err)

	v := NewJWTVerifier("secret", "").WithClock(func() time.Time { return issuedAt })
	uid, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, booking.UserID("user-1"), uid)
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: CodeTokenExpired}
	assert.Equal(t, CodeTokenExpired, err.Error())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
