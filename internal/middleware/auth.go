package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context for store calls
	"errors"   // sentinel comparisons
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/repository"
	"github.com/openrange/contest-service/internal/utils"
)

// Context keys under which the gate stores the authenticated identity and
// the raw bearer token.  The token is kept so a later logout call knows
// exactly which string to revoke.
const (
	UserKey  = "user"
	TokenKey = "access_token"
)

// UserFinder is the slice of the credential store the gate needs: the
// token subject must resolve to an existing account on every request.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Blacklist is the revocation store check consumed by the gate.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// Authenticate returns an Echo middleware that resolves a Bearer access
// token to an identity.  A token is accepted only when all of the
// following hold: the HS256 signature verifies under secret, the expiry
// has not passed, the raw token string is absent from the blacklist, and
// the subject still names an existing user.  Every credential failure is
// answered with the same 401 body so a caller cannot tell which check
// tripped.  Store connectivity failures are reported as 500, never
// disguised as credential errors.
func Authenticate(secret string, users UserFinder, tokens Blacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Read the Authorization header.  A valid header starts with
			// "Bearer " followed by the token.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Signature and expiry.
			username, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// Revocation.  A logged-out token stays rejected until its
			// natural expiry removes the blacklist entry.
			revoked, err := tokens.IsBlacklisted(ctx, raw)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "blacklist check failed"})
			}
			if revoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
			}

			// The subject must still exist; a deleted account invalidates
			// its outstanding tokens immediately.
			user, err := users.GetByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
			}

			c.Set(UserKey, user)
			c.Set(TokenKey, raw)
			return next(c)
		}
	}
}

// CurrentUser extracts the identity stored by Authenticate.  The second
// return value is false when the middleware did not run.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(UserKey).(model.User)
	return u, ok
}
