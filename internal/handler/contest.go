package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openrange/contest-service/internal/config"
	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/repository"
)

// ContestStore is the contest persistence surface the handlers consume.
type ContestStore interface {
	Create(ctx context.Context, c model.Contest) (model.Contest, error)
	GetByID(ctx context.Context, id string) (model.Contest, error)
	List(ctx context.Context, skip, limit int, sortBy string, sortOrder int, search string) ([]model.Contest, error)
	ListByAthlete(ctx context.Context, athleteID string) ([]model.Contest, error)
}

// ContestHandler bundles dependencies for the contest endpoints.
type ContestHandler struct {
	Cfg      config.Config
	Contests ContestStore
	Users    UserStore
}

func NewContestHandler(cfg config.Config, ct ContestStore, u UserStore) *ContestHandler {
	return &ContestHandler{Cfg: cfg, Contests: ct, Users: u}
}

type createContestReq struct {
	Name        string `json:"name"`
	AthleteID   string `json:"athlete_id"`
	TrainType   string `json:"train_type"`
	Description string `json:"description"`
}

// Create records a new contest for an athlete.  The athlete must exist;
// their identity is snapshotted into the contest record.
func (h *ContestHandler) Create(c echo.Context) error {
	var req createContestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if !model.ValidTrainType(req.TrainType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown train type"})
	}
	if _, err := uuid.Parse(req.AthleteID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	athlete, err := h.Users.GetByID(ctx, req.AthleteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	contest, err := h.Contests.Create(ctx, model.Contest{
		Name:        req.Name,
		Description: req.Description,
		TrainType:   req.TrainType,
		Status:      model.ContestInit,
		Athlete: model.Athlete{
			ID:       athlete.ID,
			Username: athlete.Username,
			Name:     athlete.Name,
			Role:     athlete.Role,
		},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create contest failed"})
	}
	return c.JSON(http.StatusCreated, contest)
}

// List returns a page of contests; ?search= filters on contest name and
// athlete name, case-insensitively.
func (h *ContestHandler) List(c echo.Context) error {
	skip, limit, sortBy, sortOrder := listParams(c)
	search := c.QueryParam("search")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contests, err := h.Contests.List(ctx, skip, limit, sortBy, sortOrder, search)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, contests)
}

// GetByID returns a single contest.
func (h *ContestHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contest, err := h.Contests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contest not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, contest)
}

// ListByAthlete returns every contest recorded for one athlete.
func (h *ContestHandler) ListByAthlete(c echo.Context) error {
	athleteID := c.Param("athlete_id")
	if _, err := uuid.Parse(athleteID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id not valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contests, err := h.Contests.ListByAthlete(ctx, athleteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, contests)
}
