package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"seopilot-backend/application/commands/bus"
	querybus "seopilot-backend/application/queries/bus"
	"seopilot-backend/infrastructure/config"
	"seopilot-backend/interfaces/http/rest/handlers"
	"seopilot-backend/interfaces/http/rest/middleware"
	pkgerrors "seopilot-backend/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	config      *config.Config
	rateLimiter middleware.Limiter
	logger      *zap.Logger
}

// NewRouter creates a new router instance. rateLimiter may be nil, in
// which case only the per-process limits inside Authenticate apply.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	cfg *config.Config,
	rateLimiter middleware.Limiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:  commandBus,
		queryBus:    queryBus,
		config:      cfg,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.rateLimiter != nil {
		router.Use(middleware.RateLimit(rt.rateLimiter, rt.logger))
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.seopilot.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.config.IsDevelopment())
	treeHandler := handlers.NewTreeHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	suggestionHandler := handlers.NewSuggestionHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate())

		// Site tree endpoints
		r.Route("/domains/{domainID}", func(r chi.Router) {
			r.Get("/tree", treeHandler.GetTreeLayout)
			r.Put("/positions", treeHandler.UpdatePositions)
			r.Get("/suggestions", suggestionHandler.ListSuggestions)
		})

		// Page endpoints
		r.Route("/pages", func(r chi.Router) {
			r.Post("/{pageID}/reparent", treeHandler.ReparentPage)
			r.Post("/bulk-reparent", treeHandler.BulkReparent)
		})

		// Suggestion tracking endpoints
		r.Route("/suggestions/{suggestionID}", func(r chi.Router) {
			r.Get("/", suggestionHandler.GetSuggestion)
			r.Get("/timeline", suggestionHandler.GetTimeline)
			r.Route("/tracking", func(r chi.Router) {
				r.Post("/start", suggestionHandler.StartTracking)
				r.Post("/snapshot", suggestionHandler.CaptureSnapshot)
				r.Post("/analyze", suggestionHandler.AnalyzeImpact)
				r.Post("/end", suggestionHandler.EndTracking)
			})
		})

		// Maintenance endpoint for the stale sweep
		r.Post("/tracking/auto-complete", suggestionHandler.AutoCompleteStale)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
