package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/api/handlers"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/api/middleware"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/metrics"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/ratelimit"
)

type Deps struct {
	Log         *logrus.Logger
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	Limiter     *ratelimit.Limiter
	AdminSecret string

	Chat    *handlers.ChatHandler
	Voice   *handlers.VoiceHandler
	WS      *handlers.WSHandler
	Catalog *handlers.CatalogHandler
	Health  *handlers.HealthHandler
}

func Register(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestLogger(d.Log))

	r.GET("/healthz", d.Health.Live)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/ws/voice",
		middleware.RateLimit(d.Limiter, ratelimit.ClassVoice, d.Metrics),
		d.WS.Voice)

	api := r.Group("/api")
	{
		api.POST("/chat",
			middleware.RateLimit(d.Limiter, ratelimit.ClassChat, d.Metrics),
			d.Chat.Ask)
		api.POST("/voice",
			middleware.RateLimit(d.Limiter, ratelimit.ClassVoice, d.Metrics),
			d.Voice.Ask)

		api.GET("/courses", d.Catalog.ListCourses)
		api.GET("/courses/:course_id/videos", d.Catalog.ListVideos)

		admin := api.Group("", middleware.AdminAuth(d.AdminSecret))
		{
			admin.GET("/health", d.Health.Detailed)
			admin.POST("/internal/invalidate", d.Catalog.Invalidate)
		}
	}
}
