package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/handler"
	"github.com/nacca-sms/nacca-sms-api/internal/middleware"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/config"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type roleTokens map[string]models.UserRole

func (r roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := r[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: "user-1", SchoolID: "school-1", Role: role}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:       config.EnvTesting,
		APIPrefix: "/api/v1",
		Uploads:   config.UploadConfig{MaxBytes: 1 << 20},
	}
	deps := routerDeps{
		tokens:       roleTokens{"parent-token": models.RoleParent, "teacher-token": models.RoleTeacher},
		metrics:      service.NewMetricsService(),
		auditor:      middleware.NewAuditor(nil, nil),
		loginLimiter: middleware.NewRateLimiter(1, time.Minute),
		auth:         handler.NewAuthHandler(nil),
		students:     handler.NewStudentHandler(nil),
		staff:        handler.NewStaffHandler(nil),
		classes:      handler.NewClassHandler(nil),
		assessment:   handler.NewAssessmentHandler(nil),
		reports:      handler.NewReportHandler(nil),
		fees:         handler.NewFeeHandler(nil),
		attendance:   handler.NewAttendanceHandler(nil),
		dashboard:    handler.NewDashboardHandler(nil),
		parent:       handler.NewParentHandler(nil),
		audit:        handler.NewAuditHandler(nil),
	}
	var router *gin.Engine
	require.NotPanics(t, func() { router = newRouter(cfg, zap.NewNop(), deps) })
	return router
}

func serve(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(router, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/students", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/dashboard", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterRoleGuards(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method, path, token string
	}{
		{http.MethodGet, "/api/v1/students", "parent-token"},
		{http.MethodPost, "/api/v1/students", "teacher-token"},
		{http.MethodGet, "/api/v1/assessments", "parent-token"},
		{http.MethodGet, "/api/v1/fees/invoices", "teacher-token"},
		{http.MethodPost, "/api/v1/fees/payments", "teacher-token"},
		{http.MethodGet, "/api/v1/parent", "teacher-token"},
		{http.MethodGet, "/api/v1/system/audit-logs", "teacher-token"},
		{http.MethodPost, "/api/v1/reports/terminal/class-1/publish", "parent-token"},
	}
	for _, tc := range cases {
		w := serve(router, tc.method, tc.path, tc.token, "{}")
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterLoginRateLimit(t *testing.T) {
	router := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/v1/auth/login", "", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/api/v1/auth/login", "", "not json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
