package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/utils"
)

// UserRepo is the credential store: lookups by id/username plus the
// partial updates the auth flows need.  All queries are single-row or
// single-statement; no multi-record transactions are required.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,name,password_hash,role,is_use_otp,created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.IsUseOTP, &u.CreatedAt)
	return u, err
}

// Create hashes the password and inserts a new user with a generated
// uuid.  Returns ErrUsernameExists on a duplicate username.
func (r *UserRepo) Create(ctx context.Context, username, password, name, role string, cost int) (model.User, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, name, password_hash, role, is_use_otp) VALUES (?,?,?,?,?,0)",
		id, username, name, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByUsername fetches a user by unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by its uuid.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// UpdateCredentials persists a new password hash together with the OTP
// flag in a single statement, so a reset and its flag flip are atomic.
func (r *UserRepo) UpdateCredentials(ctx context.Context, id, passwordHash string, isUseOTP bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, is_use_otp=? WHERE id=?",
		passwordHash, isUseOTP, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL also reports 0 for a no-op update, but credential updates
		// always change the hash, so 0 means the row is gone.
		return ErrNotFound
	}
	return nil
}

// userSortColumns whitelists the sortable fields.  The map keys are the
// API-level names; values are the actual column expressions.
var userSortColumns = map[string]string{
	"created_time": "created_at",
	"username":     "username",
	"name":         "name",
	"role":         "role",
}

// List returns a page of users.  sortOrder follows the Mongo convention
// the clients already speak: 1 ascending, -1 descending.
func (r *UserRepo) List(ctx context.Context, skip, limit int, sortBy string, sortOrder int) ([]model.User, error) {
	col, ok := userSortColumns[sortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if sortOrder < 0 {
		dir = "DESC"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY "+col+" "+dir+" LIMIT ? OFFSET ?",
		limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListAthletes returns every user with the athlete role, oldest first.
func (r *UserRepo) ListAthletes(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? ORDER BY created_at ASC",
		model.RoleAthlete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
