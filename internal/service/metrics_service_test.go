package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordClassification(grading.LevelJHS, grading.ClassifyTotal(80, grading.LevelJHS))
	metrics.RecordClassification(grading.LevelJHS, grading.ClassifyTotal(150, grading.LevelJHS))
	metrics.RecordPayment(250)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/dashboard", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `grade_classifications_total{level="JHS",outcome="matched"} 1`))
	assert.True(t, strings.Contains(body, `grade_classifications_total{level="JHS",outcome="unmatched"} 1`))
	assert.True(t, strings.Contains(body, "fee_payments_total 1"))

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.GradesClassified["JHS:matched"])
	assert.Equal(t, uint64(1), snapshot.PaymentsRecorded)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordPayment(10)
	metrics.RecordClassification(grading.LevelSHS, grading.Result{})
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
