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

	"github.com/nataliehogg/los-proof-of-concept/internal/api/handlers"
	mw "github.com/nataliehogg/los-proof-of-concept/internal/api/middleware"
	"github.com/nataliehogg/los-proof-of-concept/internal/buildconfig"
	"github.com/nataliehogg/los-proof-of-concept/internal/config"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/service"
	"github.com/nataliehogg/los-proof-of-concept/internal/store"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	catalogueStore := store.NewCatalogueStore(db)
	runStore := store.NewRunStore(db)

	// Services
	pipeline := service.NewLOSService(logger, config.PipelineWorkers())
	catalogueSvc := service.NewCatalogueService(catalogueStore)
	runSvc := service.NewRunService(catalogueStore, runStore, pipeline, logger)

	// Handlers
	catalogueHandler := handlers.NewCatalogueHandler(catalogueSvc)
	runHandler := handlers.NewRunHandler(runSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/catalogues", func(r chi.Router) {
			r.Post("/", catalogueHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalogueHandler.GetByID)
				r.Get("/haloes", catalogueHandler.Haloes)
			})
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", runHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", runHandler.GetByID)
				r.Get("/result", runHandler.Result)
				r.Get("/haloes", runHandler.SurvivingHaloes)
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
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
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.CatalogueStore = (*store.CatalogueStore)(nil)
	_ domain.RunStore       = (*store.RunStore)(nil)
)
