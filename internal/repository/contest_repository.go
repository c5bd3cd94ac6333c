package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/openrange/contest-service/internal/model"
)

// ContestRepo persists contests.  The embedded athlete snapshot is
// flattened into columns so listings can filter on the athlete's name
// without a join; metrics and videos live in JSON columns.
type ContestRepo struct{ DB *sql.DB }

func NewContestRepo(db *sql.DB) *ContestRepo { return &ContestRepo{DB: db} }

const contestColumns = `id,name,description,train_type,status,
	athlete_id,athlete_username,athlete_name,athlete_role,
	metrics,videos,created_at`

func scanContest(row interface{ Scan(...any) error }) (model.Contest, error) {
	var (
		c       model.Contest
		desc    sql.NullString
		metrics []byte
		videos  []byte
	)
	err := row.Scan(&c.ID, &c.Name, &desc, &c.TrainType, &c.Status,
		&c.Athlete.ID, &c.Athlete.Username, &c.Athlete.Name, &c.Athlete.Role,
		&metrics, &videos, &c.CreatedAt)
	if err != nil {
		return model.Contest{}, err
	}
	c.Description = desc.String
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &c.Metrics); err != nil {
			return model.Contest{}, err
		}
	}
	if len(videos) > 0 {
		if err := json.Unmarshal(videos, &c.Videos); err != nil {
			return model.Contest{}, err
		}
	}
	return c, nil
}

// Create inserts a contest and returns the stored row.
func (r *ContestRepo) Create(ctx context.Context, c model.Contest) (model.Contest, error) {
	c.ID = uuid.NewString()

	var metrics, videos any
	if c.Metrics != nil {
		b, err := json.Marshal(c.Metrics)
		if err != nil {
			return model.Contest{}, err
		}
		metrics = b
	}
	if c.Videos != nil {
		b, err := json.Marshal(c.Videos)
		if err != nil {
			return model.Contest{}, err
		}
		videos = b
	}
	var desc any
	if c.Description != "" {
		desc = c.Description
	}

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO contests
			(id, name, description, train_type, status,
			 athlete_id, athlete_username, athlete_name, athlete_role,
			 metrics, videos)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Name, desc, c.TrainType, c.Status,
		c.Athlete.ID, c.Athlete.Username, c.Athlete.Name, c.Athlete.Role,
		metrics, videos)
	if err != nil {
		return model.Contest{}, err
	}
	return r.GetByID(ctx, c.ID)
}

// GetByID fetches a contest by its uuid.
func (r *ContestRepo) GetByID(ctx context.Context, id string) (model.Contest, error) {
	c, err := scanContest(r.DB.QueryRowContext(ctx,
		"SELECT "+contestColumns+" FROM contests WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Contest{}, ErrNotFound
	}
	return c, err
}

// ListByAthlete returns every contest whose athlete snapshot references
// the given user id, oldest first.
func (r *ContestRepo) ListByAthlete(ctx context.Context, athleteID string) ([]model.Contest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contestColumns+" FROM contests WHERE athlete_id=? ORDER BY created_at ASC",
		athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContests(rows)
}

var contestSortColumns = map[string]string{
	"created_time": "created_at",
	"name":         "name",
	"status":       "status",
	"train_type":   "train_type",
}

// List returns a page of contests, optionally filtered by a
// case-insensitive substring match over the contest name and the
// athlete's name.
func (r *ContestRepo) List(ctx context.Context, skip, limit int, sortBy string, sortOrder int, search string) ([]model.Contest, error) {
	col, ok := contestSortColumns[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if sortOrder < 0 {
		dir = "DESC"
	}

	cond := "1=1"
	args := []any{}
	if search != "" {
		cond = "(LOWER(name) LIKE ? OR LOWER(athlete_name) LIKE ?)"
		needle := "%" + strings.ToLower(search) + "%"
		args = append(args, needle, needle)
	}
	args = append(args, limit, skip)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+contestColumns+" FROM contests WHERE "+cond+
			" ORDER BY "+col+" "+dir+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContests(rows)
}

func collectContests(rows *sql.Rows) ([]model.Contest, error) {
	contests := []model.Contest{}
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}
