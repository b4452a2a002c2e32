package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
	"github.com/martin-trajanovski/go-graphql-todos/internal/service"
	"github.com/martin-trajanovski/go-graphql-todos/internal/token"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/health"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/middleware"
)

// --- Mocks ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

type mockTodoRepo struct {
	mock.Mock
}

func (m *mockTodoRepo) Create(ctx context.Context, todo *domain.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

func (m *mockTodoRepo) GetByID(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Todo), args.Error(1)
}

func (m *mockTodoRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Todo, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]domain.Todo), args.Error(1)
}

func (m *mockTodoRepo) Update(ctx context.Context, todo *domain.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

func (m *mockTodoRepo) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type mockActivityRepo struct {
	mock.Mock
}

func (m *mockActivityRepo) Record(ctx context.Context, activity *domain.LoginActivity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Live(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *mockSessions) SaveSession(ctx context.Context, refreshToken, authToken string) error {
	args := m.Called(ctx, refreshToken, authToken)
	return args.Error(0)
}

func (m *mockSessions) AuthTokenFor(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockSessions) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockSessions) Blacklist(ctx context.Context, authToken string) error {
	args := m.Called(ctx, authToken)
	return args.Error(0)
}

func (m *mockSessions) IsBlacklisted(ctx context.Context, authToken string) (bool, error) {
	args := m.Called(ctx, authToken)
	return args.Bool(0), args.Error(1)
}

// --- Fixture ---

type apiFixture struct {
	users    *mockUserRepo
	todos    *mockTodoRepo
	sessions *mockSessions
	tokens   *token.Manager
	server   *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	// A generous limit keeps unrelated tests from tripping the throttle.
	return newAPIFixtureWithLimit(t, middleware.RateLimitConfig{RPS: 1000, Burst: 1000})
}

func newAPIFixtureWithLimit(t *testing.T, limit middleware.RateLimitConfig) *apiFixture {
	t.Helper()

	users := &mockUserRepo{}
	todos := &mockTodoRepo{}
	activities := &mockActivityRepo{}
	sessions := &mockSessions{}
	tokens := token.NewManager("auth-secret-for-tests-0123456789ab", "refresh-secret-for-tests-01234567", time.Hour, 60*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	activities.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	authService := service.NewAuthService(users, activities, sessions, tokens, bcrypt.MinCost, logger)
	todoService := service.NewTodoService(todos, logger)

	handler := NewHandler(authService, todoService, tokens, sessions, logger)
	router := NewRouter(handler, health.NewHandler(), middleware.CORSConfig{
		AllowedOrigins: []string{"*"},
	}, limit, logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiFixture{
		users:    users,
		todos:    todos,
		sessions: sessions,
		tokens:   tokens,
		server:   server,
	}
}

type testEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func (f *apiFixture) call(t *testing.T, body any, bearer string) (int, testEnvelope) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f *apiFixture) mintToken(t *testing.T, userID string) string {
	t.Helper()
	auth, err := f.tokens.MintAuthToken(userID)
	require.NoError(t, err)
	return auth.Token
}

// ---------------------------------------------------------------------------
// Transport-level failures
// ---------------------------------------------------------------------------

func TestDispatch_UnknownOperation(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.call(t, map[string]any{"operationName": "dropAllTables"}, "")

	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "unknown operation")
	assert.Equal(t, http.StatusBadRequest, env.Error.StatusCode)
}

func TestDispatch_MalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	resp, err := http.Post(f.server.URL+"/api", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatch_RateLimited(t *testing.T) {
	f := newAPIFixtureWithLimit(t, middleware.RateLimitConfig{RPS: 1, Burst: 2})

	f.users.On("GetByEmail", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, apperr.ErrNotFound).Maybe()

	// Hammer login from one client until the bucket runs dry.
	var limited bool
	for i := 0; i < 10; i++ {
		payload, err := json.Marshal(map[string]any{
			"operationName": "login",
			"variables":     map[string]any{"email": "alice@example.com", "password": "guess"},
		})
		require.NoError(t, err)

		resp, err := http.Post(f.server.URL+"/api", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		if resp.StatusCode == http.StatusTooManyRequests {
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "Too many requests")
			limited = true
			resp.Body.Close()
			break
		}
		resp.Body.Close()
	}

	assert.True(t, limited, "credential guessing should hit the rate limit")
}

func TestHealth_NotRateLimited(t *testing.T) {
	f := newAPIFixtureWithLimit(t, middleware.RateLimitConfig{RPS: 1, Burst: 1})

	for i := 0; i < 5; i++ {
		resp, err := http.Get(f.server.URL + "/health/live")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "probe %d should pass", i+1)
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	f := newAPIFixture(t)

	resp, err := http.Get(f.server.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "Nice try!", env.Error.Message)
}

// ---------------------------------------------------------------------------
// login
// ---------------------------------------------------------------------------

func TestLogin_ValidationErrorsInEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.call(t, map[string]any{
		"operationName": "login",
		"variables":     map[string]any{"password": "s3cretpass"},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Bad request", env.Error.Message)
	assert.Equal(t, http.StatusBadRequest, env.Error.StatusCode)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "email", env.Error.Errors[0].Path)
}

func TestLogin_Success(t *testing.T) {
	f := newAPIFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &domain.User{ID: "user-1", Email: "alice@example.com", PasswordHash: string(hash)}
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
	f.users.On("UpdateRefreshToken", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(nil)
	f.sessions.On("Live", mock.Anything).Return(false)

	status, env := f.call(t, map[string]any{
		"operationName": "login",
		"variables":     map[string]any{"email": "alice@example.com", "password": "s3cretpass"},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	var data struct {
		Token        string `json:"token"`
		ExpiresAt    int64  `json:"expiresAt"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.NotEmpty(t, data.RefreshToken)
	assert.Greater(t, data.ExpiresAt, time.Now().UnixMilli())
}

func TestLogin_WrongCredentialsInEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperr.ErrNotFound)

	status, env := f.call(t, map[string]any{
		"operationName": "login",
		"variables":     map[string]any{"email": "ghost@example.com", "password": "whatever"},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Wrong credentials provided", env.Error.Message)
	assert.Equal(t, http.StatusUnauthorized, env.Error.StatusCode)
}

// ---------------------------------------------------------------------------
// register
// ---------------------------------------------------------------------------

func TestRegister_DuplicateEmailInEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperr.Conflict("alice@example.com"))

	status, env := f.call(t, map[string]any{
		"operationName": "register",
		"variables": map[string]any{
			"userInput": map[string]any{
				"email":     "alice@example.com",
				"password":  "s3cretpass",
				"firstName": "Alice",
				"lastName":  "Smith",
			},
		},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "User with email alice@example.com already exists", env.Error.Message)
	assert.Equal(t, http.StatusConflict, env.Error.StatusCode)
}

func TestRegister_PasswordNeverEchoed(t *testing.T) {
	f := newAPIFixture(t)

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	status, env := f.call(t, map[string]any{
		"operationName": "register",
		"variables": map[string]any{
			"userInput": map[string]any{
				"email":     "alice@example.com",
				"password":  "s3cretpass",
				"firstName": "Alice",
				"lastName":  "Smith",
			},
		},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)
	assert.NotContains(t, string(env.Data), "s3cretpass")
	assert.NotContains(t, string(env.Data), "password")
}

// ---------------------------------------------------------------------------
// Protected operations
// ---------------------------------------------------------------------------

func TestTodos_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	status, env := f.call(t, map[string]any{"operationName": "todos"}, "")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Not authenticated", env.Error.Message)
	assert.Equal(t, http.StatusUnauthorized, env.Error.StatusCode)
}

func TestTodos_RejectsTamperedToken(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	status, env := f.call(t, map[string]any{"operationName": "todos"}, tok[:len(tok)-2]+"xx")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Not authenticated", env.Error.Message)
}

func TestTodos_RejectsBlacklistedToken(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(true)
	f.sessions.On("IsBlacklisted", mock.Anything, tok).Return(true, nil)

	status, env := f.call(t, map[string]any{"operationName": "todos"}, tok)

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Not authenticated", env.Error.Message)
}

func TestTodos_ScopedToViewer(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(false)
	f.todos.On("ListByOwner", mock.Anything, "user-1", 10).Return([]domain.Todo{
		{ID: "64b2f0e1a9c3d4e5f6a7b8c9", Title: "Buy milk", CreatedBy: "user-1"},
	}, nil)

	status, env := f.call(t, map[string]any{"operationName": "todos"}, tok)

	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	var todos []domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0].Title)
	f.todos.AssertExpectations(t)
}

func TestTodos_LimitVariable(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(false)
	f.todos.On("ListByOwner", mock.Anything, "user-1", 3).Return([]domain.Todo{}, nil)

	status, _ := f.call(t, map[string]any{
		"operationName": "todos",
		"variables":     map[string]any{"limit": 3},
	}, tok)

	assert.Equal(t, http.StatusOK, status)
	f.todos.AssertExpectations(t)
}

func TestCreateTodo_Success(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(false)
	f.todos.On("Create", mock.Anything, mock.AnythingOfType("*domain.Todo")).Return(nil)

	status, env := f.call(t, map[string]any{
		"operationName": "createTodo",
		"variables":     map[string]any{"todoInput": map[string]any{"title": "Buy milk"}},
	}, tok)

	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	var todo domain.Todo
	require.NoError(t, json.Unmarshal(env.Data, &todo))
	assert.Len(t, todo.ID, domain.TodoIDLength)
	assert.Equal(t, "user-1", todo.CreatedBy)
}

func TestCreateTodo_MissingTitle(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(false)

	status, env := f.call(t, map[string]any{
		"operationName": "createTodo",
		"variables":     map[string]any{"todoInput": map[string]any{"completed": true}},
	}, tok)

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Bad request", env.Error.Message)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "title", env.Error.Errors[0].Path)
	assert.Equal(t, "is required", env.Error.Errors[0].Message)

	f.todos.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateTodo_ShortIDViolation(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "user-1")
	f.sessions.On("Live", mock.Anything).Return(false)

	status, env := f.call(t, map[string]any{
		"operationName": "updateTodo",
		"variables": map[string]any{
			"todoUpdateInput": map[string]any{"_id": "64b2f0e1a9c3d4e5f6a7b8c", "completed": true},
		},
	}, tok)

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "_id", env.Error.Errors[0].Path)
	assert.Equal(t, "must be exactly 24 characters", env.Error.Errors[0].Message)

	f.todos.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTodo_ForeignTodoNotFound(t *testing.T) {
	f := newAPIFixture(t)

	tok := f.mintToken(t, "intruder")
	f.sessions.On("Live", mock.Anything).Return(false)
	f.todos.On("GetByID", mock.Anything, "64b2f0e1a9c3d4e5f6a7b8c9", "intruder").
		Return(nil, apperr.ErrNotFound)

	status, env := f.call(t, map[string]any{
		"operationName": "updateTodo",
		"variables": map[string]any{
			"todoUpdateInput": map[string]any{"_id": "64b2f0e1a9c3d4e5f6a7b8c9", "completed": true},
		},
	}, tok)

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusNotFound, env.Error.StatusCode)
}

// ---------------------------------------------------------------------------
// refreshToken / logout
// ---------------------------------------------------------------------------

func TestRefreshToken_SessionEndedInEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	f.sessions.On("Live", mock.Anything).Return(true)
	f.sessions.On("AuthTokenFor", mock.Anything, "stale-token").Return("", apperr.ErrNotFound)

	status, env := f.call(t, map[string]any{
		"operationName": "refreshToken",
		"variables":     map[string]any{"refreshToken": "stale-token"},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Refresh token expired - session ended.", env.Error.Message)
	assert.Equal(t, http.StatusUnauthorized, env.Error.StatusCode)
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	f := newAPIFixture(t)

	f.sessions.On("Live", mock.Anything).Return(false)

	status, env := f.call(t, map[string]any{
		"operationName": "logout",
		"variables":     map[string]any{"refreshToken": "whatever"},
	}, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, env.Error)

	var ok bool
	require.NoError(t, json.Unmarshal(env.Data, &ok))
	assert.True(t, ok)
}
