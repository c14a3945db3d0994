package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wavelength-app/wavelength/internal/common"
	"github.com/wavelength-app/wavelength/internal/dbx"
	"github.com/wavelength-app/wavelength/internal/logging"
	"github.com/wavelength-app/wavelength/internal/server/auth"
	"github.com/wavelength-app/wavelength/internal/server/config"
	"github.com/wavelength-app/wavelength/internal/server/models"
	"github.com/wavelength-app/wavelength/internal/server/services"
	usersrepo "github.com/wavelength-app/wavelength/internal/server/repositories/users"
)

// --- in-memory store ---

type memUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	byID    map[string]*models.User
	nextID  int
	failure error
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (m *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	m.nextID++
	u.ID = fmt.Sprintf("u-%d", m.nextID)
	u.CreatedAt = time.Now()
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (m *memUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return nil, m.failure
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memRepoManager struct {
	users usersrepo.Repository
}

func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository             { return m.users }

// --- helpers ---

const testSecret = "test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, repo usersrepo.Repository) *gin.Engine {
	t.Helper()
	return newTestRouterTTL(t, repo, time.Hour)
}

func newTestRouterTTL(t *testing.T, repo usersrepo.Repository, ttl time.Duration) *gin.Engine {
	t.Helper()

	cfg := &config.Config{
		SecretKey:             testSecret,
		TokenValidityDuration: ttl,
	}
	us := services.NewUserService(nil, &memRepoManager{users: repo}, auth.NewBcryptHasher(bcrypt.MinCost), cfg)

	logger := logging.NewSlogLogger(discardLogger())
	s, err := NewHTTPServer(":0", logger, us, testSecret)
	require.NoError(t, err)

	return s.router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func registerAlice(t *testing.T, r *gin.Engine) {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"username": "alice", "email": "a@x.com", "password": "pw123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
}

func loginAlice(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "a@x.com", "password": "pw123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// --- register ---

func TestRegister_Created(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	w, body := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"username": "alice", "email": "a@x.com", "password": "pw123",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully", body["message"])
	// no token on registration; login is a separate step
	assert.NotContains(t, body, "token")
}

func TestRegister_ValidationErrors(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	tests := []struct {
		name      string
		payload   gin.H
		wantField string
	}{
		{"missing username", gin.H{"email": "a@x.com", "password": "pw123"}, "username"},
		{"missing email", gin.H{"username": "alice", "password": "pw123"}, "email"},
		{"missing password", gin.H{"username": "alice", "email": "a@x.com"}, "password"},
		{"invalid email", gin.H{"username": "alice", "email": "not-an-email", "password": "pw123"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodPost, "/api/register", tt.payload, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			errs, ok := body["errors"].(map[string]any)
			require.True(t, ok, "expected field errors, got %v", body)
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())
	registerAlice(t, r)

	// same email, different other fields: still rejected
	w, body := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"username": "mallory", "email": "a@x.com", "password": "other-pw",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", body["message"])
}

// --- login ---

func TestLogin_UnknownEmailAndWrongPassword_SameResponse(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())
	registerAlice(t, r)

	wUnknown, bodyUnknown := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "nobody@x.com", "password": "pw123",
	}, nil)
	wWrong, bodyWrong := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "a@x.com", "password": "wrong",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, wUnknown.Code)
	assert.Equal(t, http.StatusBadRequest, wWrong.Code)
	assert.Equal(t, bodyUnknown, bodyWrong, "responses must not reveal which emails are registered")
	assert.Equal(t, "Invalid credentials", bodyWrong["message"])
}

func TestLogin_StoreFailure_GenericMessage(t *testing.T) {
	repo := newMemUsersRepo()
	r := newTestRouter(t, repo)
	registerAlice(t, r)

	repo.failure = fmt.Errorf("connection refused")
	w, body := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "a@x.com", "password": "pw123",
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", body["message"])
	assert.NotContains(t, fmt.Sprint(body), "connection refused")
}

// --- profile / authorization ---

func TestProfile_EndToEnd(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())
	registerAlice(t, r)
	token := loginAlice(t, r)

	for _, path := range []string{"/profile", "/api/profile"} {
		w, body := doJSON(t, r, http.MethodGet, path, nil, map[string]string{
			"Authorization": "Bearer " + token,
		})

		require.Equal(t, http.StatusOK, w.Code, "path %s", path)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "a@x.com", body["email"])
		assert.Contains(t, body, "created_at")

		// the digest must never appear under any spelling
		raw := strings.ToLower(w.Body.String())
		assert.NotContains(t, raw, "password")
		assert.NotContains(t, raw, "$2a$")
	}
}

func TestProfile_MissingOrMalformedHeader(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no header", nil},
		{"wrong scheme", map[string]string{"Authorization": "Token abc"}},
		{"no space after Bearer", map[string]string{"Authorization": "Bearerabc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodGet, "/profile", nil, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Access denied", body["message"])
		})
	}
}

func TestProfile_InvalidTokens(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	otherSecret, err := auth.GenerateToken("u-1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("u-1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"signed with different secret", otherSecret},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodGet, "/profile", nil, map[string]string{
				"Authorization": "Bearer " + tt.token,
			})
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "Invalid token", body["message"])
		})
	}
}

func TestProfile_TokenForMissingUser(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	// valid token but the subject does not exist in the store
	token, err := auth.GenerateToken("ghost", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	w, body := doJSON(t, r, http.MethodGet, "/profile", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["message"])
}

func TestProfile_StoreFailure(t *testing.T) {
	repo := newMemUsersRepo()
	r := newTestRouter(t, repo)
	registerAlice(t, r)
	token := loginAlice(t, r)

	repo.failure = fmt.Errorf("connection refused")
	w, body := doJSON(t, r, http.MethodGet, "/profile", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", body["message"])
}

// --- misc routes ---

func TestPing(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	w, body := doJSON(t, r, http.MethodGet, "/api/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])
}

func TestCORS_Preflight(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestFrontend_ShellServed(t *testing.T) {
	r := newTestRouter(t, newMemUsersRepo())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Wavelength</title>")
}
