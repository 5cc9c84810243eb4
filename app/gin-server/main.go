package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/booya1986/Learn-With-Avi-sub003/config"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/api/handlers"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/api/routes"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/cache"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/logger"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/metrics"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/pipeline"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/embed"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/llm"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/stt"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/providers/tts"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/ratelimit"
	pgrepo "github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/retrieval"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/services"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/storage"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Generation is the only hard requirement; everything else degrades.
	projectID := os.Getenv("VERTEX_PROJECT_ID")
	if projectID == "" {
		log.Fatal("VERTEX_PROJECT_ID is required")
	}
	location := envOr("VERTEX_LOCATION", "us-central1")
	modelName := envOr("VERTEX_MODEL", "gemini-2.0-flash")

	gemini, err := llm.NewVertexGemini(ctx, projectID, location, modelName)
	if err != nil {
		log.WithError(err).Fatal("failed to init generation model")
	}
	defer gemini.Close()

	var sttProvider stt.Provider
	if gs, err := stt.NewGoogleSpeech(ctx); err != nil {
		log.WithError(err).Warn("speech-to-text unavailable, voice path disabled")
	} else {
		sttProvider = gs
		defer gs.Close()
	}

	var ttsProvider tts.Provider
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		ttsProvider = tts.NewElevenLabs(key, os.Getenv("ELEVENLABS_VOICE_ID"))
	} else {
		log.Warn("ELEVENLABS_API_KEY not set, synthesis disabled")
	}

	// Postgres carries transcripts and the catalog. Without it the service
	// still answers, just ungrounded.
	var chunkRepo pgrepo.ChunkRepo
	var catalogRepo pgrepo.CatalogRepo
	if db, err := config.InitPostgres(); err != nil {
		log.WithError(err).Warn("postgres unavailable, retrieval and catalog disabled")
	} else {
		chunkRepo = pgrepo.NewChunkRepo(db)
		catalogRepo = pgrepo.NewCatalogRepo(db)
	}

	// Redis backs the query cache tier 2 and the rate limiter. Without it
	// the limiter falls back to an in-process store.
	var remote cache.Tier2
	var limiterStore ratelimit.Store = ratelimit.NewMemoryStore()
	if rdb, err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, using in-process caches and limits")
	} else {
		remote = cache.NewRedisCache(rdb)
		limiterStore = ratelimit.NewRedisStore(rdb)
		defer rdb.Close()
	}
	queryCache := cache.NewQueryCache(cache.NewLocalCache[[]byte](10000), remote)
	limiter := ratelimit.New(limiterStore)

	var embedCache *cache.EmbeddingCache
	var embedder retrieval.Embedder
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		embedCache = cache.NewEmbeddingCache(embed.NewOpenAI(key, os.Getenv("OPENAI_EMBED_MODEL")), 10000)
		defer embedCache.Stop()
		embedder = embedCache
	} else {
		log.Warn("OPENAI_API_KEY not set, vector search disabled")
	}

	var retriever pipeline.Retriever
	if chunkRepo != nil {
		retriever = retrieval.NewEngine(chunkRepo, embedder, log)
	}

	var uploader storage.Uploader
	if bucket := os.Getenv("AUDIO_BUCKET"); bucket != "" {
		if up, err := storage.NewGCSUploader(ctx, bucket); err != nil {
			log.WithError(err).Warn("audio bucket unavailable, legacy audio event disabled")
		} else {
			uploader = up
			defer up.Close()
		}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	queryCache.Instrument(m)
	if embedCache != nil {
		embedCache.Instrument(m)
	}

	orch := &pipeline.Orchestrator{
		STT:       sttProvider,
		LLM:       gemini,
		TTS:       ttsProvider,
		Retriever: retriever,
		Uploader:  uploader,
		Logger:    log,
		Metrics:   m,
	}

	catalog := services.NewCatalogService(catalogRepo, queryCache)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.Register(r, routes.Deps{
		Log:         log,
		Metrics:     m,
		Registry:    registry,
		Limiter:     limiter,
		AdminSecret: os.Getenv("ADMIN_JWT_SECRET"),
		Chat:        handlers.NewChatHandler(orch, log),
		Voice:       handlers.NewVoiceHandler(orch, log),
		WS:          handlers.NewWSHandler(orch, log),
		Catalog:     handlers.NewCatalogHandler(catalog, log),
		Health: handlers.NewHealthHandler(handlers.HealthDeps{
			Chunks:     chunkRepo,
			QueryCache: queryCache,
			EmbedCache: embedCache,
			LLMReady:   true,
			STTReady:   sttProvider != nil,
			TTSReady:   ttsProvider != nil && ttsProvider.Configured(),
		}),
	})

	srv := &http.Server{
		Addr:    ":" + envOr("PORT", "8080"),
		Handler: r,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
