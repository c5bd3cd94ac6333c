package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openrange/contest-service/internal/config"
	"github.com/openrange/contest-service/internal/handler"
	"github.com/openrange/contest-service/internal/middleware"
	"github.com/openrange/contest-service/internal/model"
	"github.com/openrange/contest-service/internal/queue"
	"github.com/openrange/contest-service/internal/repository"
	"github.com/openrange/contest-service/internal/router"
	"github.com/openrange/contest-service/internal/utils"
)

const testSecret = "test-secret"

// ---- fake stores ----

// fakeUserStore is an in-memory credential store recording the same
// state transitions the MySQL repository would perform.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (f *fakeUserStore) add(t *testing.T, username, password, role string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUserStore) get(id string) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(_ context.Context, username, password, name, role string, cost int) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return model.User{}, repository.ErrUsernameExists
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) UpdateCredentials(_ context.Context, id, passwordHash string, isUseOTP bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.IsUseOTP = isUseOTP
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) List(_ context.Context, skip, limit int, _ string, _ int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []model.User{}
	for _, u := range f.users {
		all = append(all, u)
	}
	if skip >= len(all) {
		return []model.User{}, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeUserStore) ListAthletes(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	athletes := []model.User{}
	for _, u := range f.users {
		if u.Role == model.RoleAthlete {
			athletes = append(athletes, u)
		}
	}
	return athletes, nil
}

// fakeContestStore is an in-memory contest store.
type fakeContestStore struct {
	mu       sync.Mutex
	contests map[string]model.Contest
}

func newFakeContestStore() *fakeContestStore {
	return &fakeContestStore{contests: map[string]model.Contest{}}
}

func (f *fakeContestStore) Create(_ context.Context, c model.Contest) (model.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	f.contests[c.ID] = c
	return c, nil
}

func (f *fakeContestStore) GetByID(_ context.Context, id string) (model.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contests[id]
	if !ok {
		return model.Contest{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeContestStore) List(_ context.Context, _, _ int, _ string, _ int, search string) ([]model.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(search)
	out := []model.Contest{}
	for _, c := range f.contests {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Athlete.Name), needle) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContestStore) ListByAthlete(_ context.Context, athleteID string) ([]model.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Contest{}
	for _, c := range f.contests {
		if c.Athlete.ID == athleteID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ---- test server ----

// testEnv wires the real router, gate and blacklist (over miniredis)
// around fake record stores.
type testEnv struct {
	e        *echo.Echo
	cfg      config.Config
	users    *fakeUserStore
	contests *fakeContestStore
	tokens   *repository.TokenRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithAudit(t, nil)
}

// newTestEnvWithAudit additionally hooks the password-reset audit
// publisher, letting tests capture emitted events.
func newTestEnvWithAudit(t *testing.T, audit func(context.Context, queue.PasswordResetEvent) error) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := config.Config{
		JWTSecret:    testSecret,
		AccessTTLMin: 120,
		BcryptCost:   bcrypt.MinCost,
	}
	env := &testEnv{
		e:        echo.New(),
		cfg:      cfg,
		users:    newFakeUserStore(),
		contests: newFakeContestStore(),
		tokens:   repository.NewTokenRepo(rdb),
	}

	a := handler.NewAuthHandler(cfg, env.users, env.tokens)
	u := handler.NewUserHandler(cfg, env.users)
	u.Audit = audit
	ct := handler.NewContestHandler(cfg, env.contests, env.users)
	authn := middleware.Authenticate(cfg.JWTSecret, env.users, env.tokens)
	router.RegisterRoutes(env.e, a, u, ct, authn, nil)

	return env
}

// request performs an HTTP call against the wired server.  token, when
// non-empty, is sent as a bearer credential.
func (env *testEnv) request(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a JSON response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// loginToken logs in and returns the issued access token, failing the
// test if the login is rejected.
func (env *testEnv) loginToken(t *testing.T, username, password string) string {
	t.Helper()
	rec := env.request("POST", "/auth/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	require.Equal(t, 200, rec.Code, "login failed: %s", rec.Body.String())
	body := decode(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

// tokenFor mints a token directly, bypassing login, for gate-level cases.
func tokenFor(t *testing.T, username string) string {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, username, 120)
	require.NoError(t, err)
	return access.Token
}
