package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openrange/contest-service/internal/config"
	"github.com/openrange/contest-service/internal/middleware"
	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/queue"
	"github.com/openrange/contest-service/internal/repository"
	"github.com/openrange/contest-service/internal/utils"
)

// UserHandler bundles dependencies for the user endpoints.  Audit, when
// set, publishes password-reset events to the broker; a nil Audit or a
// failed publish never blocks the reset itself.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
	Audit func(ctx context.Context, ev queue.PasswordResetEvent) error
}

func NewUserHandler(cfg config.Config, u UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Me returns the authenticated user's record, re-read from the store.
func (h *UserHandler) Me(c echo.Context) error {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Create registers a new account.  Restricted to staff by the router.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Username, req.Password, req.Name, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, u)
}

// List returns a page of users.
func (h *UserHandler) List(c echo.Context) error {
	skip, limit, sortBy, sortOrder := listParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, skip, limit, sortBy, sortOrder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// ListAthletes returns every athlete account.
func (h *UserHandler) ListAthletes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAthletes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// GetByID returns a single user.
func (h *UserHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// ResetPassword replaces the target user's credential with a freshly
// derived one-time password and flags the account for OTP login.  The
// plaintext code is returned once, to the privileged caller, who relays
// it to the user out-of-band; the store keeps only the bcrypt hash.  The
// user's former password stops working immediately.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	otp := utils.GenerateOTP(target.ID)
	hash, err := utils.HashPassword(otp, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdateCredentials(ctx, target.ID, hash, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if actor, ok := middleware.CurrentUser(c); ok {
		log.Printf("user %s reset password for user %s", actor.Username, target.Username)
		if h.Audit != nil {
			// Best effort; the reset already happened.
			_ = h.Audit(ctx, queue.PasswordResetEvent{
				ActorID:        actor.ID,
				ActorUsername:  actor.Username,
				TargetID:       target.ID,
				TargetUsername: target.Username,
				ResetAt:        time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "successful", "otp": otp})
}
