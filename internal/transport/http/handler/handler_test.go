package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-gorm-taskboard/internal/core/auth"
	"go-gin-gorm-taskboard/internal/core/cache"
	"go-gin-gorm-taskboard/internal/core/config"
	"go-gin-gorm-taskboard/internal/domain"
	"go-gin-gorm-taskboard/internal/repo/memory"
	"go-gin-gorm-taskboard/internal/service"
	resp "go-gin-gorm-taskboard/internal/transport/http/response"
	"go-gin-gorm-taskboard/internal/transport/http/router"
)

func init() { gin.SetMode(gin.TestMode) }

type testApp struct {
	api   *gin.Engine
	admin *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	stores := memory.New().Stores()
	jwter := &auth.JWTer{Secret: []byte("0123456789abcdef-test"), Issuer: "taskboard", TTL: time.Hour}
	authSvc := service.NewAuthService(stores.Accounts, jwter, cache.NewMemoryDenylist())
	accSvc := service.NewAccountService(stores.Accounts)
	taskSvc := service.NewTaskService(stores.Tasks)
	l := zap.NewNop()

	reg := router.NewRegistry(
		NewAuthHandler(authSvc, accSvc, CookieOptions{Name: "token", MaxAge: time.Hour}, l),
		NewTaskHandler(taskSvc, l),
		NewAdminHandler(accSvc, taskSvc, l),
	)
	opts := router.Options{
		Log:        l,
		HTTP:       config.HTTP{HandlerTimeoutSec: 5, MaxConcurrent: 10, MaxBodyBytes: 1 << 16},
		CORS:       []string{"http://localhost:5173"},
		CookieName: "token",
		Verifier:   authSvc,
		Registry:   reg,
	}
	return &testApp{api: router.NewAPIEngine(opts), admin: router.NewAdminEngine(opts)}
}

type client struct {
	t      *testing.T
	engine *gin.Engine
	cookie *http.Cookie
}

func (a *testApp) client(t *testing.T) *client { return &client{t: t, engine: a.api} }

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "token" {
			c.cookie = ck
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (c *client) signup(name, email string) domain.AccountView {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": name, "email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	w = c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginOut](c.t, w).User
}

func TestAliceAndBob(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)

	w := alice.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Alice", "email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode[map[string]any](t, w)
	assert.Equal(t, "alice@x.com", reg["email"])
	assert.Equal(t, "user", reg["role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = alice.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, alice.cookie)
	assert.True(t, alice.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, alice.cookie.SameSite)
	assert.Equal(t, "/", alice.cookie.Path)
	aliceID := decode[loginOut](t, w).User.ID

	w = alice.do(http.MethodPost, "/api/v1/tasks", gin.H{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[domain.Task](t, w)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, aliceID, task.OwnerID)

	w = alice.do(http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.Task](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	bob := app.client(t)
	bob.signup("Bob", "bob@x.com")

	w = bob.do(http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = bob.do(http.MethodPut, "/api/v1/tasks/"+task.ID, gin.H{"status": "Done"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, resp.Resp{Code: 403, Msg: "access forbidden", Data: map[string]any{}}, decode[resp.Resp](t, w))

	w = bob.do(http.MethodGet, "/api/v1/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = bob.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = bob.do(http.MethodGet, "/api/v1/tasks/no-such-task", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterErrors(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.signup("Alice", "alice@x.com")

	w := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Alice 2", "email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = c.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Eve", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "valid email required", decode[resp.Resp](t, w).Msg)

	w = c.do(http.MethodPost, "/api/v1/auth/register", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	app := newTestApp(t)
	app.client(t).signup("Alice", "alice@x.com")

	c := app.client(t)
	wrong := c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "alice@x.com", "password": "nope123"})
	ghost := c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ghost@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, ghost.Code)
	assert.Equal(t, wrong.Body.String(), ghost.Body.String())
	assert.Nil(t, c.cookie)
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.signup("Alice", "alice@x.com")

	w := c.do(http.MethodPost, "/api/v1/tasks", gin.H{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title is required", decode[resp.Resp](t, w).Msg)

	w = c.do(http.MethodPost, "/api/v1/tasks", gin.H{
		"title": "Ship", "description": "v1", "status": "In Progress", "dueDate": "2025-11-10", "ownerId": "someone-else",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[domain.Task](t, w)
	assert.NotEqual(t, "someone-else", task.OwnerID)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-11-10", task.DueDate.String())

	w = c.do(http.MethodPut, "/api/v1/tasks/"+task.ID, gin.H{"status": "Done"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[domain.Task](t, w)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Equal(t, "Ship", got.Title)
	assert.Equal(t, "v1", got.Description)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-11-10", got.DueDate.String())

	w = c.do(http.MethodPut, "/api/v1/tasks/"+task.ID, `{"description":"","dueDate":null,"id":"hijack"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[domain.Task](t, w)
	assert.Equal(t, task.ID, got.ID)
	assert.Empty(t, got.Description)
	assert.Nil(t, got.DueDate)

	w = c.do(http.MethodPut, "/api/v1/tasks/"+task.ID, gin.H{"status": "Someday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"task deleted successfully"}`, w.Body.String())

	w = c.do(http.MethodGet, "/api/v1/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = c.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequiredAndLogout(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	w := c.do(http.MethodGet, "/api/v1/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	me := c.signup("Alice", "alice@x.com")
	stolen := *c.cookie

	w = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, me, decode[domain.AccountView](t, w))

	w = c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"logged out"}`, w.Body.String())
	assert.Empty(t, c.cookie.Value)
	assert.Less(t, c.cookie.MaxAge, 0)

	// 注销后旧 token 即使还没过期也不能再用
	c.cookie = &stolen
	w = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 没有 token 也可以登出
	anon := app.client(t)
	w = anon.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerToken(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.signup("Alice", "alice@x.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+c.cookie.Value)
	w := httptest.NewRecorder()
	app.api.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSeesEverything(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("Alice", "alice@x.com")
	bob := app.client(t)
	bob.signup("Bob", "bob@x.com")

	root := app.client(t)
	w := root.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Root", "email": "root@x.com", "password": "secret1", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = root.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "root@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range []*client{alice, alice, bob} {
		w := c.do(http.MethodPost, "/api/v1/tasks", gin.H{"title": "mine"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	bobs := decode[[]domain.Task](t, bob.do(http.MethodGet, "/api/v1/tasks", nil))
	require.Len(t, bobs, 1)

	all := decode[[]domain.Task](t, root.do(http.MethodGet, "/api/v1/tasks", nil))
	require.Len(t, all, 3)
	for _, x := range all {
		require.NotNil(t, x.Owner)
		assert.NotEmpty(t, x.Owner.Email)
	}

	// 管理员可以修改和删除他人的任务
	w = root.do(http.MethodPut, "/api/v1/tasks/"+bobs[0].ID, gin.H{"status": "Done"})
	require.Equal(t, http.StatusOK, w.Code)
	w = root.do(http.MethodDelete, "/api/v1/tasks/"+bobs[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, bob.do(http.MethodGet, "/api/v1/tasks", nil).Body.String())
}

func TestAdminEngine(t *testing.T) {
	app := newTestApp(t)
	alice := app.client(t)
	alice.signup("Alice", "alice@x.com")

	root := app.client(t)
	w := root.do(http.MethodPost, "/api/v1/auth/register", gin.H{"name": "Root", "email": "root@x.com", "password": "secret1", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code)
	root.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "root@x.com", "password": "secret1"})
	require.NotNil(t, root.cookie)

	alice.engine = app.admin
	root.engine = app.admin

	w = alice.do(http.MethodGet, "/admin/v1/accounts", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = root.do(http.MethodGet, "/admin/v1/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	accounts := decode[[]domain.AccountView](t, w)
	assert.Len(t, accounts, 2)
	assert.NotContains(t, w.Body.String(), "password")

	w = root.do(http.MethodGet, "/admin/v1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	anon := &client{t: t, engine: app.admin}
	w = anon.do(http.MethodGet, "/admin/v1/accounts", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthMetricsAndCORS(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	app.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	app.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	app.api.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	app.api.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyTooLarge(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	c.signup("Alice", "alice@x.com")

	big := bytes.Repeat([]byte("x"), 1<<17)
	w := c.do(http.MethodPost, "/api/v1/tasks", gin.H{"title": string(big)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
