// Package token verifies bearer credentials. Verification is a pure function
// of the raw token, the signing key loaded at startup, and the clock; the
// verifier never talks to the network or the datastore.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// Verification failures. Callers must present all three identically to the
// end user; they exist so the server can log and count them distinctly.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// Claims is the decoded payload of a verified credential.
type Claims struct {
	SubjectID string
	Email     string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier checks token integrity and expiry against a shared HS256 secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates the signature and expiry of raw and extracts its claims.
// An expired but correctly signed token fails with ErrExpired.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}
	if !tkn.Valid {
		return nil, ErrSignatureInvalid
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || !domain.KnownRole(domain.Role(role)) {
		return nil, ErrMalformed
	}

	out := &Claims{
		SubjectID: sub,
		Email:     email,
		Role:      domain.Role(role),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
