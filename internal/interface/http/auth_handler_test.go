package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "authapi/internal/application"
	"authapi/internal/domain/entity"
	repo "authapi/internal/domain/repository"
	handlers "authapi/internal/interface/http"
	"authapi/internal/router"
	"authapi/internal/router/modules"
	"authapi/pkg/helpers"
	"authapi/pkg/validation"
)

var setupOnce sync.Once

// envelope mirrors the response body shape for assertions.
type envelope struct {
	Status  int            `json:"status"`
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Meta    map[string]any `json:"meta"`
	Error   any            `json:"error"`
}

type memRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.User
	seq  int
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if strings.EqualFold(e.Email, u.Email) {
			return repo.ErrDuplicateEmail
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	cp.PasswordHash = ""
	return &cp, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string, withPassword bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if strings.EqualFold(e.Email, email) {
			cp := *e
			if !withPassword {
				cp.PasswordHash = ""
			}
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, other := range r.byID {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return repo.ErrDuplicateEmail
		}
	}
	hash := e.PasswordHash
	cp := *u
	cp.PasswordHash = hash
	cp.UpdatedAt = time.Now()
	r.byID[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	e.PasswordHash = hash
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.byID))
	for _, e := range r.byID {
		cp := *e
		cp.PasswordHash = ""
		out = append(out, &cp)
	}
	return out, nil
}

var _ repo.UserRepository = (*memRepo)(nil)

func newAPI(t *testing.T) *gin.Engine {
	t.Helper()
	setupOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		validation.Init()
	})

	jwtm, err := helpers.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	svc := userapp.NewService(&memRepo{byID: map[string]*entity.User{}}, jwtm, nil, nil, nil, "", nil, nil, "", false)
	h := handlers.NewAuthHandler(svc, nil)

	engine := gin.New()
	reg := router.NewRegistry(engine)
	reg.Add(modules.NewAuthModule(h, jwtm, svc))
	reg.RegisterAll()
	return engine
}

func doJSON(engine *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func registerBody() map[string]any {
	return map[string]any{
		"fullName":  "Jane Example",
		"email":     "jane@example.com",
		"password":  "secret123",
		"gender":    "female",
		"phone":     "5551234567",
		"birthDate": "1990-06-15",
	}
}

func registerAndLogin(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	w, env := doJSON(engine, http.MethodPost, "/api/auth/register", "", registerBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterEndpoint(t *testing.T) {
	engine := newAPI(t)

	w, env := doJSON(engine, http.MethodPost, "/api/auth/register", "", registerBody())

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data["token"])

	user, ok := env.Data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.Equal(t, "1990-06-15", user["birthDate"])

	// Neither the plaintext nor the hash may ever leave the service.
	body := w.Body.String()
	assert.NotContains(t, body, "secret123")
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "$2")
}

func TestRegisterValidationDetails(t *testing.T) {
	engine := newAPI(t)

	bad := registerBody()
	bad["email"] = "not-an-email"
	bad["phone"] = "12ab"
	delete(bad, "fullName")

	w, env := doJSON(engine, http.MethodPost, "/api/auth/register", "", bad)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	details, ok := env.Error.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "fullName")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "phone")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	engine := newAPI(t)
	registerAndLogin(t, engine)

	again := registerBody()
	again["email"] = "JANE@EXAMPLE.COM"
	w, env := doJSON(engine, http.MethodPost, "/api/auth/register", "", again)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already registered", env.Message)
}

func TestLoginEndpoint(t *testing.T) {
	engine := newAPI(t)
	registerAndLogin(t, engine)

	w, env := doJSON(engine, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "secret123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data["token"])
}

func TestLoginFailureMessagesMatch(t *testing.T) {
	engine := newAPI(t)
	registerAndLogin(t, engine)

	wUnknown, envUnknown := doJSON(engine, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	wWrong, envWrong := doJSON(engine, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
	assert.Equal(t, envUnknown.Message, envWrong.Message)
}

func TestMeEndpoint(t *testing.T) {
	engine := newAPI(t)
	token := registerAndLogin(t, engine)

	w, _ := doJSON(engine, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := doJSON(engine, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jane@example.com", env.Data["email"])
	assert.NotContains(t, w.Body.String(), "$2")
}

func TestUpdateProfilePartialEndpoint(t *testing.T) {
	engine := newAPI(t)
	token := registerAndLogin(t, engine)

	w, env := doJSON(engine, http.MethodPut, "/api/auth/updateprofile", token, map[string]any{
		"phone": "5559876543",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "5559876543", env.Data["phone"])
	assert.Equal(t, "Jane Example", env.Data["fullName"])
	assert.Equal(t, "jane@example.com", env.Data["email"])
	assert.Equal(t, "1990-06-15", env.Data["birthDate"])
}

func TestUpdateProfileRejectsBadField(t *testing.T) {
	engine := newAPI(t)
	token := registerAndLogin(t, engine)

	w, env := doJSON(engine, http.MethodPut, "/api/auth/updateprofile", token, map[string]any{
		"gender": "unknown",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestChangePasswordEndpoint(t *testing.T) {
	engine := newAPI(t)
	token := registerAndLogin(t, engine)

	w, _ := doJSON(engine, http.MethodPut, "/api/auth/password", token, map[string]any{
		"currentPassword": "wrong",
		"newPassword":     "brandnew1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(engine, http.MethodPut, "/api/auth/password", token, map[string]any{
		"currentPassword": "secret123",
		"newPassword":     "brandnew1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(engine, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "brandnew1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	engine := newAPI(t)
	token := registerAndLogin(t, engine)

	second := registerBody()
	second["email"] = "other@example.com"
	w, _ := doJSON(engine, http.MethodPost, "/api/auth/register", "", second)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(engine, http.MethodGet, "/api/auth/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), env.Meta["count"])
	assert.NotContains(t, w.Body.String(), "$2")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newAPI(t)

	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/updateprofile"},
		{http.MethodPut, "/api/auth/password"},
		{http.MethodGet, "/api/auth/users"},
		{http.MethodGet, "/api/auth/users/search"},
	} {
		w, _ := doJSON(engine, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}
