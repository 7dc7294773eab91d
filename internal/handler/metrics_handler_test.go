package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	handler := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": ok, "redis": ok})

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"ok","redis":"ok"}}`, w.Body.String())
}

func TestMetricsHandlerReadyReportsFailingDependency(t *testing.T) {
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	handler := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": ok, "redis": down})

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheusAndSystem(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordPayment(120)
	handler := NewMetricsHandler(metrics, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fee_payments_amount_total 120")

	c, w = newGinContext(http.MethodGet, "/system/metrics", nil)
	withCaller(c, models.RoleSuperAdmin)
	handler.System(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paymentsRecorded":1`)
}
