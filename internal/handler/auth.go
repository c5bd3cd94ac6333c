package handler

import (
	"context"  // provides context with cancellation for store calls
	"errors"   // sentinel comparisons
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for store calls, blacklist TTL

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/openrange/contest-service/internal/config"
	"github.com/openrange/contest-service/internal/middleware"
	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/repository"
	"github.com/openrange/contest-service/internal/utils"
)

// UserStore is the credential store surface the handlers consume.
// *repository.UserRepo satisfies it; tests substitute fakes.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, username, password, name, role string, cost int) (model.User, error)
	UpdateCredentials(ctx context.Context, id, passwordHash string, isUseOTP bool) error
	List(ctx context.Context, skip, limit int, sortBy string, sortOrder int) ([]model.User, error)
	ListAthletes(ctx context.Context) ([]model.User, error)
}

// TokenStore is the revocation side of the blacklist, consumed by logout.
type TokenStore interface {
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IsUseOTP    bool   `json:"is_use_otp"`
}
type changePasswordReq struct {
	Password      string `json:"password"`
	CheckPassword string `json:"check_password"`
}

// badCredentials is the single response for every login failure.  Unknown
// username, wrong password and wrong OTP are indistinguishable from the
// outside, so the endpoint cannot be used to enumerate usernames.
func badCredentials(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect username or password"})
}

// Login verifies a username/password pair and issues a bearer token.
// While the account is flagged for OTP recovery the password field is
// interpreted as the one-time password instead; either way the submitted
// secret is checked against the single stored bcrypt hash.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return badCredentials(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return badCredentials(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// One credential check covers both branches; IsUseOTP only decides
	// what the hash currently is and what the response reports.  A
	// successful OTP login does NOT clear the flag — the code stays
	// usable until the user sets a real password via change-password.
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return badCredentials(c)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		AccessToken: access.Token,
		TokenType:   "bearer",
		IsUseOTP:    u.IsUseOTP,
	})
}

// Logout revokes the presenting token.  The gate already proved the token
// valid and un-revoked, so the blacklist insert is unconditional; the TTL
// equals the full token lifetime, which always covers the remaining one.
// A second logout with the same token never reaches this handler — the
// gate rejects it with 401.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := c.Get(middleware.TokenKey).(string)
	if !ok || raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ttl := time.Duration(h.Cfg.AccessTTLMin) * time.Minute
	if err := h.Tokens.Blacklist(ctx, raw, ttl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

// ChangePassword sets a new password for the authenticated user.  It
// always clears the OTP flag: a manual password change supersedes any
// pending recovery code.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" || req.Password != req.CheckPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password not match"})
	}
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Re-resolve the account; the gate ran earlier in the request but the
	// record may have vanished in between.
	u, err := h.Users.GetByUsername(ctx, current.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdateCredentials(ctx, u.ID, hash, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "successful"})
}
