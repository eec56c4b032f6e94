package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"datacenter-audit-backend/config"
	"datacenter-audit-backend/internal/auth"
	"datacenter-audit-backend/internal/model"
	"datacenter-audit-backend/internal/store"
)

type testEnv struct {
	router *gin.Engine
	store  store.Store
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Audit{}, &model.Issue{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps concurrent requests from tripping
	// SQLite's shared-cache table locks
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Report.MaxRows = 1000

	s := store.NewGormStore(db)
	hasher := auth.NewBcryptHasher(4) // low cost to keep tests fast
	tokens := auth.NewJWTManager([]byte("test-secret"), time.Hour)

	return &testEnv{
		router: NewRouter(cfg, s, hasher, tokens),
		store:  s,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
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
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// register creates a technician account and returns its token and user id.
func (e *testEnv) register(t *testing.T, email string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", fmt.Sprintf(
		`{"email":%q,"password":"password123","firstName":"Ada","lastName":"Lovelace"}`, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	user := body["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func (e *testEnv) createAudit(t *testing.T, token string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/audits", token,
		`{"datacenter":"Dallas","dataHall":"East Wing","walkthroughId":"WT-1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["audit"].(map[string]any)["id"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupAPI(t)

	token, _ := env.register(t, "ada@example.com")
	assert.NotEmpty(t, token)

	// duplicate email is a conflict
	w := env.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"ada@example.com","password":"password123","firstName":"A","lastName":"B"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.NotEmpty(t, user["lastLoginAt"])

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"nobody@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/audits", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = env.do(t, http.MethodGet, "/api/audits", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// health stays open
	w = env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeactivatedAccountCannotLogin(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")

	w := env.do(t, http.MethodDelete, "/api/auth/profile", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuditOwnership(t *testing.T) {
	env := setupAPI(t)
	ownerToken, _ := env.register(t, "owner@example.com")
	otherToken, _ := env.register(t, "other@example.com")

	auditID := env.createAudit(t, ownerToken)

	// a non-owner cannot mutate the audit, regardless of payload validity
	w := env.do(t, http.MethodPut, "/api/audits/"+auditID, otherToken, `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/audits/"+auditID, otherToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the owner can complete it once
	w = env.do(t, http.MethodPost, "/api/audits/"+auditID+"/complete", ownerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode(t, w)["audit"].(map[string]any)
	assert.Equal(t, "completed", audit["status"])
	assert.NotEmpty(t, audit["completedAt"])

	// completing again is a conflict, not a silent re-apply
	w = env.do(t, http.MethodPost, "/api/audits/"+auditID+"/complete", ownerToken, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// a completed audit cannot be deleted
	w = env.do(t, http.MethodDelete, "/api/audits/"+auditID, ownerToken, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuditStatusValidation(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPut, "/api/audits/"+auditID, token, `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/audits/nonexistent-id", token, `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueCreationRules(t *testing.T) {
	env := setupAPI(t)
	ownerToken, _ := env.register(t, "owner@example.com")
	otherToken, _ := env.register(t, "other@example.com")
	auditID := env.createAudit(t, ownerToken)

	issueBody := fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"critical"}`, auditID)

	// only the audit's technician may add issues
	w := env.do(t, http.MethodPost, "/api/issues", otherToken, issueBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// status defaults to open when omitted
	w = env.do(t, http.MethodPost, "/api/issues", ownerToken, issueBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issue := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "open", issue["status"])

	// round-trip: fetching by id returns the supplied fields
	w = env.do(t, http.MethodGet, "/api/issues/"+issue["id"].(string), ownerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "A01", fetched["rackLocation"])
	assert.Equal(t, "power_supply_unit", fetched["deviceType"])
	assert.Equal(t, "critical", fetched["severity"])
	assert.Equal(t, "Dallas", fetched["datacenter"])

	// unknown enum values are rejected before touching the store
	w = env.do(t, http.MethodPost, "/api/issues", ownerToken, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"cooling_fan","severity":"critical"}`, auditID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// a completed audit accepts no further issues
	w = env.do(t, http.MethodPost, "/api/audits/"+auditID+"/complete", ownerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/issues", ownerToken, issueBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueResolveReopen(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"warning"}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code)
	issueID := decode(t, w)["issue"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/resolve", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	issue := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "resolved", issue["status"])
	assert.NotEmpty(t, issue["resolvedAt"])

	// resolving twice is a conflict
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/resolve", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/reopen", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	issue = decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "open", issue["status"])
	assert.Nil(t, issue["resolvedAt"])

	// closing goes through the general update, after which the dedicated
	// actions no longer apply
	w = env.do(t, http.MethodPut, "/api/issues/"+issueID, token, `{"status":"closed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/issues/"+issueID+"/reopen", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIncidentSurface(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"critical"}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code)
	criticalID := decode(t, w)["issue"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"B02","deviceType":"power_distribution_unit","severity":"warning"}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code)
	warningID := decode(t, w)["issue"].(map[string]any)["id"].(string)

	// the listing only ever contains critical issues
	w = env.do(t, http.MethodGet, "/api/incidents?severity=warning", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	incidents := decode(t, w)["incidents"].([]any)
	require.Len(t, incidents, 1)
	assert.Equal(t, criticalID, incidents[0].(map[string]any)["id"])

	// non-critical issues are not addressable here
	w = env.do(t, http.MethodGet, "/api/incidents/"+warningID, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPut, "/api/incidents/"+warningID+"/status", token, `{"status":"resolved"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// closed is not reachable through the incident surface
	w = env.do(t, http.MethodPut, "/api/incidents/"+criticalID+"/status", token, `{"status":"closed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/incidents/"+criticalID+"/status", token, `{"status":"resolved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", decode(t, w)["incident"].(map[string]any)["status"])
}

func TestListAuditsPagination(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	for i := 0; i < 3; i++ {
		env.createAudit(t, token)
	}

	w := env.do(t, http.MethodGet, "/api/audits?page=1&limit=2", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["audits"].([]any), 2)
	p := body["pagination"].(map[string]any)
	assert.Equal(t, true, p["hasMore"])

	w = env.do(t, http.MethodGet, "/api/audits?page=2&limit=2", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["audits"].([]any), 1)
	assert.Equal(t, false, body["pagination"].(map[string]any)["hasMore"])

	w = env.do(t, http.MethodGet, "/api/audits?limit=0", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReport(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"critical","psuId":"PSU-9","uHeight":12}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/reports/generate?severity=critical", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Datacenter,Data Hall,Walkthrough ID,Rack Location,Device Type,PSU ID,U-Height,Severity,Status,Comments,Technician,Created Date,Resolved Date", lines[0])
	assert.Contains(t, lines[1], "Dallas,East Wing,WT-1,A01,power_supply_unit,PSU-9,12,critical,open")
}

func TestDashboardMetrics(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"critical"}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/dashboard/metrics", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	metrics := body["metrics"].(map[string]any)
	assert.Equal(t, float64(0), metrics["completedAudits"])
	assert.Equal(t, float64(1), metrics["activeIncidents"])
	assert.Equal(t, float64(1), metrics["totalIssues"])
	assert.Equal(t, float64(1), metrics["criticalIssues"])
	assert.Len(t, body["recentAudits"].([]any), 1)
	assert.Len(t, body["activeIncidents"].([]any), 1)
}

func TestIssueCannotBeCreatedClosed(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	w := env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"warning","status":"closed"}`, auditID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// resolved is an acceptable initial status and is stamped on creation
	w = env.do(t, http.MethodPost, "/api/issues", token, fmt.Sprintf(
		`{"auditId":%q,"rackLocation":"A01","deviceType":"power_supply_unit","severity":"warning","status":"resolved"}`, auditID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issue := decode(t, w)["issue"].(map[string]any)
	assert.Equal(t, "resolved", issue["status"])
	assert.NotEmpty(t, issue["resolvedAt"])
}

func TestDashboardCacheEncoding(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")

	// warm the cache with a client that accepts gzip
	req, err := http.NewRequest(http.MethodGet, "/api/dashboard/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	// a cache hit for a client without gzip support is served plain
	w = env.do(t, http.MethodGet, "/api/dashboard/metrics", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Contains(t, decode(t, w), "metrics")

	// and a gzip client gets the hit re-encoded
	req, err = http.NewRequest(http.MethodGet, "/api/dashboard/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(plain, &body))
	assert.Contains(t, body, "metrics")
}

func TestConcurrentAuditStatusPuts(t *testing.T) {
	env := setupAPI(t)
	token, _ := env.register(t, "ada@example.com")
	auditID := env.createAudit(t, token)

	// two racing terminal transitions: each request either wins (200) or
	// loses to the one that committed first (409), never anything else
	targets := []string{"completed", "cancelled"}
	codes := make([]int, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			body := bytes.NewBufferString(fmt.Sprintf(`{"status":%q}`, target))
			req, err := http.NewRequest(http.MethodPut, "/api/audits/"+auditID, body)
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, target)
	}
	wg.Wait()

	assert.Contains(t, codes, http.StatusOK)
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusOK, http.StatusConflict}, code)
	}

	w := env.do(t, http.MethodGet, "/api/audits/"+auditID, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, targets, decode(t, w)["audit"].(map[string]any)["status"])
}
