package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/token"
)

// identityKey is the echo context key the request identity is stored under.
const identityKey = "identity"

// Identity builds the per-request identity from the Authorization header and
// attaches it to the context. It never rejects a request: no bearer value or
// a failed verification both resolve to the anonymous identity, and the
// policy engine decides downstream whether that is acceptable. Failures are
// logged and counted distinctly server-side but are indistinguishable to the
// caller.
func Identity(verifier *token.Verifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(identityKey, domain.Identity{})

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.TokenVerifyFailuresTotal.WithLabelValues("malformed").Inc()
				return next(c)
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				metrics.TokenVerifyFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				log.Debug().Err(err).Str("path", c.Path()).Msg("bearer token rejected, continuing as anonymous")
				return next(c)
			}

			c.Set(identityKey, domain.Identity{
				SubjectID: claims.SubjectID,
				Email:     claims.Email,
				Role:      claims.Role,
			})
			return next(c)
		}
	}
}

// CallerIdentity extracts the identity attached by the Identity middleware.
// The zero value (anonymous) is returned when the middleware did not run.
func CallerIdentity(c echo.Context) domain.Identity {
	id, _ := c.Get(identityKey).(domain.Identity)
	return id
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrSignatureInvalid):
		return "signature"
	default:
		return "malformed"
	}
}
