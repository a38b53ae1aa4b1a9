package http

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/delivery/http/handler"
	"github.com/site-assessment/internal/domain"
	apperrors "github.com/site-assessment/internal/pkg/errors"
	"github.com/site-assessment/internal/pkg/metrics"
)

type stubService struct{}

func (stubService) Assess(context.Context, domain.Coordinate) (*domain.AssessmentRun, error) {
	return &domain.AssessmentRun{ID: uuid.New()}, nil
}

func (stubService) GetRun(context.Context, uuid.UUID) (*domain.AssessmentRun, error) {
	return nil, apperrors.ErrStoreDisabled
}

func (stubService) Layers() map[string]bool { return map[string]bool{"population": true, "seismic": true} }

func (stubService) StoreEnabled() bool { return false }

func newTestServer(metricsEnabled bool) *Server {
	cfg := &config.Config{
		Metrics: config.MetricsConfig{Enabled: metricsEnabled, Path: "/metrics"},
	}
	svc := stubService{}
	return NewServer(
		cfg,
		zap.NewNop(),
		metrics.New("test"),
		handler.NewAssessmentHandler(svc, "", zap.NewNop()),
		handler.NewHealthHandler(svc),
	)
}

func TestServer_Routes(t *testing.T) {
	app := newTestServer(true).App()

	t.Run("health", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/health", nil))
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	})

	t.Run("legacy route rejects missing coordinates", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodPost, "/analyze-location", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	})

	t.Run("stored run without store", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/assessments/"+uuid.NewString(), nil))
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "go_goroutines")
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodOptions, "/analyze-location", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_MetricsDisabled(t *testing.T) {
	app := newTestServer(false).App()

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	var out struct {
		Error apperrors.AppError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "NOT_FOUND", out.Error.Code)
}
