package rest

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"goslim/application/commands/bus"
	"goslim/application/ports"
	querybus "goslim/application/queries/bus"
	domainconfig "goslim/domain/config"
	"goslim/infrastructure/config"
	"goslim/infrastructure/persistence/localfs"
	"goslim/infrastructure/tools"
	"goslim/interfaces/http/rest/handlers"
	"goslim/interfaces/http/rest/middleware"
	v1 "goslim/interfaces/http/rest/v1"
	"goslim/pkg/auth"
	"goslim/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg         *config.Config
	domainCfg   *domainconfig.DomainConfig
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	ontology    ports.OntologyProvider
	registry    *tools.Registry
	resultStore ports.ResultStore
	limiter     auth.RateLimiter
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	ontology ports.OntologyProvider,
	registry *tools.Registry,
	resultStore ports.ResultStore,
	limiter auth.RateLimiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		domainCfg:   domainCfg,
		commandBus:  commandBus,
		queryBus:    queryBus,
		ontology:    ontology,
		registry:    registry,
		resultStore: resultStore,
		limiter:     limiter,
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
	router.Use(versionMiddleware)

	if rt.cfg.EnableTracing {
		router.Use(observability.NewTracer("goslim-api").Middleware)
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	uploadDir := rt.cfg.UploadDir
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "goslim-uploads")
	}

	termHandler := handlers.NewTermHandler(rt.queryBus, rt.logger)
	jobHandler := handlers.NewJobHandler(rt.commandBus, rt.queryBus, uploadDir, rt.domainCfg.MaxUploadBytes, rt.logger)
	adminHandler := handlers.NewAdminHandler(rt.commandBus, rt.ontology, rt.logger)

	// API v2 routes (current)
	router.Route("/api/v2", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, rt.logger))

		// Term endpoints
		r.Route("/terms", func(r chi.Router) {
			r.Get("/{termID}", termHandler.GetTerm)
			r.Get("/{termID}/mapping", termHandler.GetTermMapping)
		})
		r.Get("/slim/terms", termHandler.ListSlimTerms)

		// Job endpoints
		r.Post("/mapper/jobs", jobHandler.SubmitMapperJob)
		r.Post("/enrichment/jobs", jobHandler.SubmitEnrichmentJob)
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.ListJobs)
			r.Get("/{jobID}", jobHandler.GetJob)
			r.Get("/{jobID}/events", jobHandler.GetJobEvents)
		})

		// Operational endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.jwtValidator(), rt.logger))
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Post("/cache/rebuild", adminHandler.RebuildCache)
			r.Get("/ontology", adminHandler.GetOntologyInfo)
		})
	})

	// Legacy form endpoints keep their CGI-era paths
	legacy := v1.NewRouter(v1.NewLegacyHandler(
		rt.commandBus, rt.queryBus, uploadDir, rt.domainCfg.MaxUploadBytes, rt.logger))
	router.Handle("/goslimmapper", legacy)
	router.Handle("/termfinder", legacy)
	router.Handle("/gotermfinder", legacy)

	// When artifacts live on local disk, serve them so returned URLs resolve
	if store, ok := rt.resultStore.(*localfs.ResultStore); ok {
		files := http.StripPrefix("/results/", http.FileServer(http.Dir(store.Dir())))
		router.Handle("/results/*", files)
	}

	return router
}

// jwtValidator builds the validator for the admin surface. Returning nil
// makes Authenticate reject with 503 until a secret is configured.
func (rt *Router) jwtValidator() *auth.JWTValidator {
	if rt.cfg.JWTSecret == "" {
		return nil
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: rt.cfg.JWTSecret,
		Issuer:    rt.cfg.JWTIssuer,
		Audience:  []string{"goslim-api"},
	})
	if err != nil {
		rt.logger.Error("failed to configure jwt validator", zap.Error(err))
		return nil
	}
	return validator
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once an ontology snapshot is being served
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	loaded, err := rt.ontology.Current(req.Context())
	if err != nil {
		rt.logger.Warn("readiness probe failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ready",
		"release": loaded.Version.Release,
		"terms":   loaded.Version.TermCount,
		"tools":   rt.registry.Names(),
	})
}

// versionMiddleware adds API version headers; the legacy router stamps its
// own headers on the CGI-era paths
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/goslimmapper", "/termfinder", "/gotermfinder":
		default:
			w.Header().Set("X-API-Version", "v2")
			w.Header().Set("X-API-Latest", "v2")
		}
		next.ServeHTTP(w, r)
	})
}
