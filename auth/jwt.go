/*
Package auth verifies the identity token sent with every user request.

PURPOSE:
  The booking handlers only need one thing from the identity provider: the
  stable user id behind a token. Verifier is that seam. JWTVerifier checks
  HS256 tokens signed with a shared secret and returns the "sub" claim.

ERROR CODES:
  Every failure is an *Error wrapping ErrInvalidToken, with a code the
  client can branch on:

    auth/argument-error     empty or malformed token
    auth/id-token-expired   token past its exp claim
    auth/invalid-signature  wrong key or algorithm
    auth/invalid-claims     missing subject, wrong issuer, not yet valid

SEE ALSO:
  - api/errors.go: every auth error maps to 401
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/ticket-engine/booking"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidToken is wrapped by every verification failure.
var ErrInvalidToken = errors.New("invalid id token")

const (
	CodeArgumentError    = "auth/argument-error"
	CodeTokenExpired     = "auth/id-token-expired"
	CodeInvalidSignature = "auth/invalid-signature"
	CodeInvalidClaims    = "auth/invalid-claims"
)

// Error is a token verification failure.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidToken}
	}
	return []error{ErrInvalidToken, e.Err}
}

// =============================================================================
// VERIFIER
// =============================================================================

// Verifier resolves an identity token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (booking.UserID, error)
}

// JWTVerifier verifies HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTVerifier creates a verifier. An empty issuer disables the issuer check.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// WithClock returns a copy of the verifier that reads time from now.
func (v *JWTVerifier) WithClock(now func() time.Time) *JWTVerifier {
	c := *v
	c.now = now
	return &c
}

// Verify checks the token and returns its subject.
func (v *JWTVerifier) Verify(_ context.Context, token string) (booking.UserID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &Error{Code: CodeArgumentError, Err: errors.New("empty token")}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", &Error{Code: codeFor(err), Err: err}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return "", &Error{Code: CodeInvalidClaims, Err: errors.New("missing subject")}
	}
	return booking.UserID(sub), nil
}

// Issue mints a token for uid valid for ttl.
func (v *JWTVerifier) Issue(uid booking.UserID, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   string(uid),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return CodeArgumentError
	case errors.Is(err, jwt.ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return CodeInvalidSignature
	default:
		return CodeInvalidClaims
	}
}
