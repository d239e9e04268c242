package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/voxpopai/personacore/internal/api/handlers"
	mw "github.com/voxpopai/personacore/internal/api/middleware"
	"github.com/voxpopai/personacore/internal/buildconfig"
	"github.com/voxpopai/personacore/internal/codec"
	"github.com/voxpopai/personacore/internal/config"
	"github.com/voxpopai/personacore/internal/consistency"
	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/kv"
	"github.com/voxpopai/personacore/internal/llm"
	"github.com/voxpopai/personacore/internal/memory"
	"github.com/voxpopai/personacore/internal/scorer"
	"github.com/voxpopai/personacore/internal/service"
	"github.com/voxpopai/personacore/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Janitor      *kv.Janitor
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	clock := domain.SystemClock()

	// Memory backend: Redis when reachable, with an in-process
	// fallback that keeps serving turns through an outage.
	fallback := kv.NewFallback(kv.DefaultFallbackCapacity, clock)
	var memStore domain.KeyValueStore = fallback
	redisStore, err := kv.NewRedisStore(kv.RedisConfig{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       config.RedisDB(),
	})
	if err != nil {
		logger.Warn("Redis unavailable, using in-process memory store", zap.Error(err))
	} else {
		logger.Info("Redis connected", zap.String("addr", config.RedisAddr()))
		memStore = kv.NewResilient(redisStore, fallback, logger, clock)
	}

	janitor := kv.NewJanitor(fallback, logger)

	personaStore := store.NewPersonaStore(db)

	vectorCodec := codec.New(time.Now().UnixNano())

	// External clients via provider factory
	vectorizer, err := scorer.NewVectorizer(config.ScorerProvider(), vectorCodec, time.Now().UnixNano(), scorer.ONNXConfig{
		ModelPath:     config.ONNXModelPath(),
		TokenizerPath: config.ONNXTokenizerPath(),
	})
	if err != nil {
		logger.Warn("scorer initialization failed, falling back to heuristic",
			zap.String("provider", config.ScorerProvider()), zap.Error(err))
		vectorizer, _ = scorer.NewVectorizer("heuristic", vectorCodec, time.Now().UnixNano(), scorer.ONNXConfig{})
	} else {
		logger.Info("scorer initialized", zap.String("provider", config.ScorerProvider()))
	}

	generator, err := llm.NewClient(config.GeneratorProvider(), config.GeneratorAPIKey())
	if err != nil {
		logger.Warn("generator client initialization failed",
			zap.String("provider", config.GeneratorProvider()), zap.Error(err))
	} else {
		logger.Info("generator client initialized", zap.String("provider", config.GeneratorProvider()))
	}

	// Core engine
	controller := consistency.New(vectorCodec, vectorizer, logger, consistency.Options{
		VariationRange: config.VariationRange(),
		DriftThreshold: config.DriftThreshold(),
		Clock:          clock,
	})
	hierarchical := memory.New(memStore, vectorCodec, clock, logger)

	// Services
	personaSvc := service.NewPersonaService(personaStore, vectorCodec, hierarchical, controller, logger)
	responseSvc := service.NewResponseService(personaStore, hierarchical, controller, generator, vectorCodec, logger)
	responseSvc.SetMaxRegenerations(config.MaxRegenerations())

	// Handlers
	personaHandler := handlers.NewPersonaHandler(personaSvc)
	interactHandler := handlers.NewInteractHandler(responseSvc)
	memoryHandler := handlers.NewMemoryHandler(hierarchical)
	consistencyHandler := handlers.NewConsistencyHandler(controller)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Janitor:   janitor,
		startTime: time.Now(),
	}

	counters := mw.NewCounters(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(counters.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db, memStore))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/personas", func(r chi.Router) {
			r.Post("/", personaHandler.Create)
			r.Get("/", personaHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", personaHandler.Get)
				r.Delete("/", personaHandler.Delete)
				r.Put("/rebuild", personaHandler.Rebuild)
				r.Post("/interact", interactHandler.Respond)
				r.Get("/context", memoryHandler.Context)
				r.Get("/profile", memoryHandler.Profile)
				r.Get("/consistency", consistencyHandler.Report)
				r.Delete("/memory", memoryHandler.Clear)
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool, memStore domain.KeyValueStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":           "ok",
			"memory_connected": memStore.Connected(r.Context()),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.PersonaStore  = (*store.PersonaStore)(nil)
	_ domain.KeyValueStore = (*kv.RedisStore)(nil)
	_ domain.KeyValueStore = (*kv.Fallback)(nil)
	_ domain.KeyValueStore = (*kv.Resilient)(nil)
	_ domain.TextGenerator = (*llm.OpenAIClient)(nil)
	_ domain.TextGenerator = (*llm.AnthropicClient)(nil)
	_ domain.TextGenerator = (*llm.MockClient)(nil)
	_ domain.TextToVector  = (*scorer.Keyword)(nil)
	_ domain.TextToVector  = (*scorer.Mock)(nil)
)
