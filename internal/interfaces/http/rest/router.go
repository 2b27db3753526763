// Package rest wires the REST endpoints into a chi router.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/interfaces/http/rest/handlers"
	"github.com/zack-george/instanthspro/internal/interfaces/http/rest/middleware"
	"github.com/zack-george/instanthspro/internal/observability"
	"github.com/zack-george/instanthspro/internal/service/assistant"
	"github.com/zack-george/instanthspro/internal/service/billing"
	"github.com/zack-george/instanthspro/internal/service/generation"
	"github.com/zack-george/instanthspro/internal/store"
	"github.com/zack-george/instanthspro/pkg/api"
	"github.com/zack-george/instanthspro/pkg/auth"
)

// Router creates and configures the HTTP router.
type Router struct {
	store          store.Store
	generator      *generation.Service
	billing        *billing.Service
	assistant      *assistant.Service
	validator      *auth.Validator
	metrics        *observability.Collector
	wsHandler      http.HandlerFunc
	allowedOrigins []string
	logger         *zap.Logger
}

// NewRouter creates a new router instance. wsHandler may be nil when the
// realtime surface is disabled (the Lambda deployment).
func NewRouter(
	st store.Store,
	generator *generation.Service,
	billingSvc *billing.Service,
	assistantSvc *assistant.Service,
	validator *auth.Validator,
	metrics *observability.Collector,
	wsHandler http.HandlerFunc,
	allowedOrigins []string,
	logger *zap.Logger,
) *Router {
	return &Router{
		store:          st,
		generator:      generator,
		billing:        billingSvc,
		assistant:      assistantSvc,
		validator:      validator,
		metrics:        metrics,
		wsHandler:      wsHandler,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	if rt.wsHandler != nil {
		// The websocket handler does its own token validation; browsers
		// cannot set Authorization headers on upgrade requests.
		router.Get("/ws", rt.wsHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		generationHandler := handlers.NewGenerationHandler(rt.generator, rt.store, rt.logger)
		r.Post("/generations", generationHandler.Generate)

		profileHandler := handlers.NewProfileHandler(rt.store, rt.logger)
		r.Get("/profile", profileHandler.GetProfile)
		r.Get("/gallery", profileHandler.GetGallery)

		billingHandler := handlers.NewBillingHandler(rt.billing, rt.logger)
		r.Get("/credits/packs", billingHandler.ListPacks)
		r.Post("/credits/purchase", billingHandler.Purchase)

		assistantHandler := handlers.NewAssistantHandler(rt.assistant, rt.logger)
		r.Post("/assistant/styles", assistantHandler.SuggestStyles)
		r.Post("/assistant/bio", assistantHandler.DraftBio)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
