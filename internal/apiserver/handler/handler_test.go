package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/middleware"
	"github.com/amoylab/ragtrack/internal/apiserver/notify"
	"github.com/amoylab/ragtrack/internal/apiserver/report"
	"github.com/amoylab/ragtrack/internal/apiserver/scope"
	"github.com/amoylab/ragtrack/internal/auth/jwt"
	"github.com/amoylab/ragtrack/internal/common/config"
	"github.com/amoylab/ragtrack/pkg/mailer"
	"github.com/amoylab/ragtrack/pkg/week"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "s3cret-enough"

type fakeMailer struct {
	sent    []mailer.Email
	failFor map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, email mailer.Email) (string, error) {
	for _, to := range email.To {
		if f.failFor[to] {
			return "", fmt.Errorf("delivery to %s refused", to)
		}
	}
	f.sent = append(f.sent, email)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

type env struct {
	t      *testing.T
	db     database.Database
	jwtSvc *jwt.Service
	router *gin.Engine
	mail   *fakeMailer
}

func newEnv(t *testing.T) *env {
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtSvc, err := jwt.NewService(jwt.Config{
		SecretKey: "0123456789abcdef0123456789abcdef",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	cal := week.NewCalendar(6)
	resolver := scope.NewResolver(db)
	reportSvc := report.NewService(db, resolver, &cal)

	mail := &fakeMailer{failFor: map[string]bool{}}
	dispatcher, err := notify.NewDispatcher(mail, "https://ragtrack.example.com", logger)
	require.NoError(t, err)
	pipeline := notify.NewPipeline(db, dispatcher, nil, logger)

	authH := NewAuth(db, jwtSvc, logger)
	userH := NewUser(db, logger)
	projectH := NewProject(db, logger)
	reportH := NewReport(db, reportSvc, nil, logger)
	emailH := NewEmail(pipeline, logger)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", authH.Login)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtSvc), middleware.LanguageMiddleware())
	authed.GET("/auth/me", authH.Me)
	authed.POST("/auth/change-password", authH.ChangePassword)

	admin := authed.Group("", middleware.RequireRoles("admin"))
	admin.GET("/users", userH.List)
	admin.GET("/users/pms", userH.ListPMs)
	admin.POST("/users", userH.Create)
	admin.PUT("/users/:id", userH.Update)
	admin.DELETE("/users/:id", userH.Delete)
	admin.POST("/projects", projectH.Create)
	admin.PUT("/projects/:id", projectH.Update)
	admin.DELETE("/projects/:id", projectH.Delete)
	admin.GET("/email/recipients", emailH.Recipients)
	admin.POST("/email/send-dashboard", emailH.SendDashboard)
	admin.POST("/email/send-reminders", emailH.SendReminders)

	authed.GET("/projects", projectH.List)
	authed.GET("/reports", reportH.List)
	authed.GET("/reports/current-week", reportH.CurrentWeek)
	authed.GET("/reports/weeks", reportH.Weeks)
	authed.GET("/reports/history/:projectId", reportH.History)
	authed.POST("/reports", middleware.RequireRoles("pm"), reportH.Submit)
	authed.POST("/reports/rag-suggestion", middleware.RequireRoles("pm", "admin"), reportH.Suggest)

	return &env{t: t, db: db, jwtSvc: jwtSvc, router: router, mail: mail}
}

func (e *env) createUser(name, email string, role database.UserRole, active bool) *database.User {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := &database.User{Name: name, Email: email, Password: string(hashed), Role: role, IsActive: active}
	require.NoError(e.t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *env) createProject(name string, pmID *uint) *database.Project {
	e.t.Helper()
	p := &database.Project{Name: name, Client: "Acme", Type: database.ContractTimeMaterial, PMID: pmID, Status: database.ProjectStatusActive}
	require.NoError(e.t, e.db.CreateProject(context.Background(), p))
	return p
}

func (e *env) token(u *database.User) string {
	e.t.Helper()
	token, err := e.jwtSvc.GenerateToken(u.ID, u.Email, string(u.Role))
	require.NoError(e.t, err)
	return token
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	disabled := e.createUser("Gone", "gone@example.com", database.RolePM, false)

	w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": admin.Email, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": disabled.Email, "password": testPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ROOT@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["role"])
}

func TestMeAndChangePassword(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	token := e.token(pm)

	w := e.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", decode(t, w)["email"])

	w = e.do(http.MethodPost, "/api/auth/change-password", token,
		gin.H{"oldPassword": "not-the-one", "newPassword": "another-secret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/change-password", token,
		gin.H{"oldPassword": testPassword, "newPassword": "another-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": pm.Email, "password": "another-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserManagement(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	token := e.token(admin)

	w := e.do(http.MethodPost, "/api/users", token,
		gin.H{"name": "Alice", "email": "alice@example.com", "password": "password123", "role": "pm"})
	require.Equal(t, http.StatusCreated, w.Code)

	// duplicate email, different case
	w = e.do(http.MethodPost, "/api/users", token,
		gin.H{"name": "Clone", "email": "ALICE@example.com", "password": "password123", "role": "pm"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// pm role cannot manage users
	alice, err := e.db.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	w = e.do(http.MethodGet, "/api/users", e.token(alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestUserSelfGuards(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	other := e.createUser("Bob", "bob@example.com", database.RolePM, true)
	token := e.token(admin)

	w := e.do(http.MethodPut, fmt.Sprintf("/api/users/%d", admin.ID), token, gin.H{"role": "exec"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/users/%d", admin.ID), token, gin.H{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// renaming yourself is fine
	w = e.do(http.MethodPut, fmt.Sprintf("/api/users/%d", admin.ID), token, gin.H{"name": "Rooter"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", other.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodDelete, "/api/users/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPMs(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	e.createUser("Alice", "alice@example.com", database.RolePM, true)
	e.createUser("Bob", "bob@example.com", database.RolePM, false)
	e.createUser("Eve", "eve@example.com", database.RoleExec, true)

	w := e.do(http.MethodGet, "/api/users/pms", e.token(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pms []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pms))
	require.Len(t, pms, 1)
	assert.Equal(t, "alice@example.com", pms[0]["email"])
}

func TestProjectCreateAndOwnerChecks(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	exec := e.createUser("Eve", "eve@example.com", database.RoleExec, true)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	token := e.token(admin)

	// exec cannot own a project
	w := e.do(http.MethodPost, "/api/projects", token,
		gin.H{"name": "Apollo", "client": "Acme", "pmId": exec.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/projects", token,
		gin.H{"name": "Apollo", "client": "Acme", "type": "Fixed Price", "pmId": pm.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	// non-admin writes are rejected
	w = e.do(http.MethodPost, "/api/projects", e.token(pm), gin.H{"name": "Hermes", "client": "Acme"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectListScoping(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	exec := e.createUser("Eve", "eve@example.com", database.RoleExec, true)

	e.createProject("Apollo", &pm.ID)
	hermes := e.createProject("Hermes", nil)
	hermes.Status = database.ProjectStatusClosed
	require.NoError(t, e.db.UpdateProject(context.Background(), hermes))

	count := func(token string) int {
		w := e.do(http.MethodGet, "/api/projects", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return len(out)
	}

	assert.Equal(t, 2, count(e.token(admin)))
	assert.Equal(t, 1, count(e.token(pm)))
	assert.Equal(t, 1, count(e.token(exec)))
}

func TestProjectStatusTransitionMessages(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	token := e.token(admin)
	p := e.createProject("Apollo", nil)

	w := e.do(http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), token, gin.H{"status": "closed"})
	require.Equal(t, http.StatusOK, w.Code)
	closed := decode(t, w)["data"].(map[string]any)
	assert.NotNil(t, closed["closedAt"])

	w = e.do(http.MethodPut, fmt.Sprintf("/api/projects/%d", p.ID), token, gin.H{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code)
	reopened := decode(t, w)["data"].(map[string]any)
	assert.Nil(t, reopened["closedAt"])
}

func submitBody(projectID uint) gin.H {
	return gin.H{
		"projectId":            projectID,
		"rag":                  "Green",
		"overallSummary":       "steady week",
		"billingCount":         5,
		"currentBillableCount": 5,
		"deliverables":         []gin.H{{"task": "release 1.4"}},
	}
}

func TestReportSubmitAndCurrentWeek(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	exec := e.createUser("Eve", "eve@example.com", database.RoleExec, true)
	apollo := e.createProject("Apollo", &pm.ID)
	e.createProject("Hermes", &pm.ID)
	token := e.token(pm)

	// execs never submit
	w := e.do(http.MethodPost, "/api/reports", e.token(exec), submitBody(apollo.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/reports", token, submitBody(apollo.ID))
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Green", rep["rag"])
	assert.Equal(t, "NA", rep["prevRag"])

	// resubmission overwrites, same week identity
	body := submitBody(apollo.ID)
	body["rag"] = "Amber"
	w = e.do(http.MethodPost, "/api/reports", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Amber", decode(t, w)["data"].(map[string]any)["rag"])

	w = e.do(http.MethodGet, "/api/reports/current-week", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode(t, w)
	assert.Len(t, snap["reports"], 1)
	assert.Len(t, snap["pending"], 1)
}

func TestReportSubmitValidation(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	other := e.createUser("Bob", "bob@example.com", database.RolePM, true)
	apollo := e.createProject("Apollo", &pm.ID)

	body := submitBody(apollo.ID)
	body["rag"] = "Purple"
	w := e.do(http.MethodPost, "/api/reports", e.token(pm), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// someone else's project
	w = e.do(http.MethodPost, "/api/reports", e.token(other), submitBody(apollo.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/reports", e.token(pm), submitBody(9999))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportListAndHistory(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	other := e.createUser("Bob", "bob@example.com", database.RolePM, true)
	apollo := e.createProject("Apollo", &pm.ID)
	token := e.token(pm)

	w := e.do(http.MethodPost, "/api/reports", token, submitBody(apollo.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/reports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	assert.Len(t, reports, 1)

	w = e.do(http.MethodGet, "/api/reports?weekKey=banana", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/reports/history/%d", apollo.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/reports/history/%d", apollo.ID), e.token(other), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/reports/history/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeksSelector(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)

	w := e.do(http.MethodGet, "/api/reports/weeks", e.token(pm), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var weeks []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &weeks))
	require.NotEmpty(t, weeks)
	assert.LessOrEqual(t, len(weeks), 26)
	assert.Regexp(t, `^\d{4}-\d{2}$`, weeks[0]["weekKey"])
}

func TestRagSuggestion(t *testing.T) {
	e := newEnv(t)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)

	w := e.do(http.MethodPost, "/api/reports/rag-suggestion", e.token(pm),
		gin.H{"billingCount": 5, "currentBillableCount": 5})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(100), out["score"])
	assert.Equal(t, "Green", out["rag"])
}

func TestEmailEndpoints(t *testing.T) {
	e := newEnv(t)
	admin := e.createUser("Root", "root@example.com", database.RoleAdmin, true)
	pm := e.createUser("Alice", "alice@example.com", database.RolePM, true)
	e.createProject("Apollo", &pm.ID)
	token := e.token(admin)

	// no active execs yet
	w := e.do(http.MethodPost, "/api/email/send-dashboard", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	e.createUser("Eve", "eve@example.com", database.RoleExec, true)

	w = e.do(http.MethodGet, "/api/email/recipients", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["recipients"], 1)

	w = e.do(http.MethodPost, "/api/email/send-dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), out["total"])
	assert.Equal(t, float64(1), out["sent"])

	// apollo has no report yet, so its PM gets a reminder
	w = e.do(http.MethodPost, "/api/email/send-reminders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), out["sent"])
	require.Len(t, e.mail.sent, 2)
	assert.Contains(t, e.mail.sent[1].To, "alice@example.com")
}

func TestEmailEndpointsWithoutMailer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEmail(nil, zap.NewNop())
	router := gin.New()
	router.POST("/api/email/send-dashboard", h.SendDashboard)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/email/send-dashboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
