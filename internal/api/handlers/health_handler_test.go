package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	pgrepo "github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
)

type pingableRepo struct {
	pingErr error
}

func (p *pingableRepo) ListByVideo(context.Context, string) ([]models.TranscriptChunk, error) {
	return nil, nil
}

func (p *pingableRepo) NearestByEmbedding(context.Context, string, []float32, int) ([]pgrepo.ScoredChunk, error) {
	return nil, nil
}

func (p *pingableRepo) Ping(context.Context) error { return p.pingErr }

func newHealthRouter(deps HealthDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(deps)
	r := gin.New()
	r.GET("/healthz", h.Live)
	r.GET("/api/health", h.Detailed)
	return r
}

func getHealth(t *testing.T, r *gin.Engine, path string) (int, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestLiveAlwaysOK(t *testing.T) {
	r := newHealthRouter(HealthDeps{})

	code, body := getHealth(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestDetailedHealthy(t *testing.T) {
	r := newHealthRouter(HealthDeps{
		Chunks:   &pingableRepo{},
		LLMReady: true,
		STTReady: true,
		TTSReady: true,
	})

	code, body := getHealth(t, r, "/api/health")
	assert.Equal(t, http.StatusOK, code)
	// Redis is unconfigured, so the rollup is degraded, not unhealthy.
	assert.JSONEq(t, `"degraded"`, string(body["status"]))
}

func TestDetailedDegradedStillServes(t *testing.T) {
	r := newHealthRouter(HealthDeps{
		Chunks:   &pingableRepo{pingErr: errors.New("connection refused")},
		LLMReady: true,
	})

	code, body := getHealth(t, r, "/api/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"degraded"`, string(body["status"]))

	var deps map[string]dependencyStatus
	require.NoError(t, json.Unmarshal(body["dependencies"], &deps))
	assert.Equal(t, statusDegraded, deps["postgres"].Status)
	assert.Equal(t, statusHealthy, deps["llm"].Status)
}

func TestDetailedUnhealthyWithoutGeneration(t *testing.T) {
	r := newHealthRouter(HealthDeps{LLMReady: false})

	code, body := getHealth(t, r, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `"unhealthy"`, string(body["status"]))
}
