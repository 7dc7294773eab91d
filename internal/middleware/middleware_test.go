package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/middleware/requestid"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "teacher":
		return &models.JWTClaims{UserID: "user-2", Role: models.RoleTeacher, SchoolID: "school-1"}, nil
	case "accounts":
		return &models.JWTClaims{UserID: "user-3", Role: models.RoleAccountsOfficer, SchoolID: "school-1"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.POST("/items/:id", handlers...)
	return router
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/items/item-1", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.RemoteAddr = "10.0.0.1:5000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAndRoleGuards(t *testing.T) {
	router := newRouter(JWT(stubValidator{}), TeacherOnly())

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Token teacher").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer forged").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "Bearer accounts").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "Bearer teacher").Code)
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	fixed := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	router := newRouter(limiter.Middleware())

	assert.Equal(t, http.StatusNoContent, serve(router, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "").Code)
	blocked := serve(router, "")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "30", blocked.Header().Get("Retry-After"))

	fixed = fixed.Add(30 * time.Second)
	assert.Equal(t, http.StatusNoContent, serve(router, "").Code)
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)
	start := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)
	limiter.visitor("10.0.0.1", start)
	limiter.visitor("10.0.0.2", start.Add(2*time.Minute))

	assert.Equal(t, 1, limiter.sweep(start.Add(4*time.Minute)))
	assert.Len(t, limiter.visitors, 1)
}

type recordingAudit struct {
	logs []models.AuditLog
	err  error
}

func (r *recordingAudit) Create(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, *log)
	return r.err
}

func TestAuditorRecordsSuccessfulRequests(t *testing.T) {
	recorder := &recordingAudit{}
	auditor := NewAuditor(recorder, nil)
	router := newRouter(JWT(stubValidator{}), auditor.Record(models.AuditActionReportsPublish, "class", "id"))

	require.Equal(t, http.StatusNoContent, serve(router, "Bearer teacher").Code)
	require.Len(t, recorder.logs, 1)
	entry := recorder.logs[0]
	assert.Equal(t, models.AuditActionReportsPublish, entry.Action)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, "item-1", *entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "user-2", *entry.UserID)
	assert.Contains(t, string(entry.NewValues), `"status":204`)
}

func TestAuditorSkipsFailuresAndToleratesWriteErrors(t *testing.T) {
	recorder := &recordingAudit{err: errors.New("db down")}
	auditor := NewAuditor(recorder, nil)

	failing := newRouter(JWT(stubValidator{}), auditor.Record(models.AuditActionPaymentRecord, "payment", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(failing, "").Code)
	assert.Empty(t, recorder.logs)

	assert.Equal(t, http.StatusNoContent, serve(failing, "Bearer accounts").Code)
	assert.Len(t, recorder.logs, 1)
}

type observation struct {
	path   string
	status int
}

type recordingObserver struct{ seen []observation }

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.seen = append(r.seen, observation{path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(observer))
	router.POST("/items/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	serve(router, "")
	req := httptest.NewRequest(http.MethodGet, "/nowhere/123", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observation{path: "/items/:id", status: http.StatusAccepted}, observer.seen[0])
	assert.Equal(t, "unmatched", observer.seen[1].path)
}

func TestResponseMetaCarriesRequestIDAndCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(requestid.Middleware(), WithResponseMeta())
	router.GET("/dashboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(requestid.Header, "trace-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, meta)
	assert.Equal(t, "trace-1", meta["request_id"])
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(16))
	router.POST("/echo", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, small)
	assert.Equal(t, http.StatusOK, w.Code)

	large := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, large)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
