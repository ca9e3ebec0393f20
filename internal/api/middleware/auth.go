package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/api/metrics"
	"github.com/tcc/task-manager-api/internal/core/token"
)

// Context keys populated by Auth for downstream handlers.
const (
	CtxUsername = "username"
	CtxRole     = "role"
	CtxUserID   = "user_id"
	CtxEmail    = "email"
)

// Auth extracts and validates the bearer token and binds the resolved
// identity to the request context. Every rejection is the same 401 to the
// client; the concrete reason (missing, malformed, bad signature, expired,
// unsupported) is only logged and counted.
func Auth(codec *token.Codec, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(c, log, "missing", nil)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject(c, log, "malformed", nil)
			}

			claims, err := codec.Decode(parts[1])
			if err != nil {
				return reject(c, log, rejectReason(err), err)
			}

			c.Set(CtxUsername, claims.Subject)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)

			return next(c)
		}
	}
}

func reject(c echo.Context, log zerolog.Logger, reason string, err error) error {
	metrics.AuthTokensRejectedTotal.WithLabelValues(reason).Inc()
	log.Debug().
		Err(err).
		Str("reason", reason).
		Str("path", c.Path()).
		Msg("request rejected by identity resolver")
	// One client-visible message for every failure class: a caller cannot
	// distinguish a missing token from an expired one.
	return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, token.ErrUnsupportedToken):
		return "unsupported"
	default:
		return "malformed"
	}
}
