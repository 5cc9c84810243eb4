package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/cache"
	pgrepo "github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthDeps lists what the detailed report inspects. Nil entries report as
// unconfigured rather than failing.
type HealthDeps struct {
	Chunks     pgrepo.ChunkRepo
	QueryCache *cache.QueryCache
	EmbedCache *cache.EmbeddingCache

	LLMReady bool
	STTReady bool
	TTSReady bool
}

type HealthHandler struct {
	deps HealthDeps
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Live is the public liveness probe. It never touches dependencies.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Detailed reports per-dependency health with an overall rollup. Only an
// unhealthy rollup gets a 503: a degraded service still answers questions.
func (h *HealthHandler) Detailed(c *gin.Context) {
	ctx := c.Request.Context()
	report := map[string]dependencyStatus{}

	// Generation is the one stage with no fallback.
	if h.deps.LLMReady {
		report["llm"] = dependencyStatus{Status: statusHealthy}
	} else {
		report["llm"] = dependencyStatus{Status: statusUnhealthy, Detail: "not configured"}
	}

	if h.deps.Chunks != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.deps.Chunks.Ping(pctx)
		cancel()
		if err != nil {
			report["postgres"] = dependencyStatus{Status: statusDegraded, Detail: err.Error()}
		} else {
			report["postgres"] = dependencyStatus{Status: statusHealthy}
		}
	} else {
		report["postgres"] = dependencyStatus{Status: statusDegraded, Detail: "not configured"}
	}

	if h.deps.QueryCache != nil {
		ch := h.deps.QueryCache.Health(ctx)
		if ch.Connected {
			report["redis"] = dependencyStatus{Status: statusHealthy, Detail: ch.MemoryUsed}
		} else {
			report["redis"] = dependencyStatus{Status: statusDegraded, Detail: "tier-2 unreachable"}
		}
	} else {
		report["redis"] = dependencyStatus{Status: statusDegraded, Detail: "not configured"}
	}

	if h.deps.EmbedCache != nil {
		report["embeddings"] = dependencyStatus{Status: statusHealthy}
	} else {
		report["embeddings"] = dependencyStatus{Status: statusDegraded, Detail: "keyword fallback active"}
	}

	if h.deps.STTReady {
		report["stt"] = dependencyStatus{Status: statusHealthy}
	} else {
		report["stt"] = dependencyStatus{Status: statusDegraded, Detail: "voice path disabled"}
	}
	if h.deps.TTSReady {
		report["tts"] = dependencyStatus{Status: statusHealthy}
	} else {
		report["tts"] = dependencyStatus{Status: statusDegraded, Detail: "synthesis disabled"}
	}

	overall := statusHealthy
	for _, dep := range report {
		switch dep.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	body := gin.H{
		"status":       overall,
		"dependencies": report,
	}
	if h.deps.QueryCache != nil {
		body["queryCache"] = h.deps.QueryCache.Stats()
	}
	if h.deps.EmbedCache != nil {
		body["embeddingCache"] = h.deps.EmbedCache.Stats()
	}

	status := http.StatusOK
	if overall == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}
