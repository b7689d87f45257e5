// Package httpapi exposes the Geographic Resolver, Pricing
// Orchestrator, and run-trace lookup/replay over HTTP, using chi for
// routing, go-chi/cors for cross-origin access, and
// prometheus/client_golang for request metrics.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gyeh/cms-pricing/internal/geo"
	"github.com/gyeh/cms-pricing/internal/mrf"
	"github.com/gyeh/cms-pricing/internal/pricing/orchestrator"
	"github.com/gyeh/cms-pricing/internal/snapshot"
	"github.com/gyeh/cms-pricing/internal/trace"
)

// Server wires the HTTP surface to the domain services.
type Server struct {
	resolver     *geo.Resolver
	orchestrator *orchestrator.Orchestrator
	registry     *snapshot.Registry
	traces       trace.Store
	mrf          *mrf.Lookup
	log          *zap.Logger

	router         chi.Router
	requestTimeout time.Duration
}

// Deps bundles the domain services the HTTP surface depends on.
type Deps struct {
	Resolver           *geo.Resolver
	Orchestrator       *orchestrator.Orchestrator
	Registry           *snapshot.Registry
	Traces             trace.Store
	MRF                *mrf.Lookup
	Log                *zap.Logger
	CORSOrigins        []string
	RequestTimeout     time.Duration
	APIKeys            []string
	AdminAPIKeys       []string
	RateLimitPerMinute int
	RateLimitBurst     int
}

// NewServer builds the chi router and registers every route.
func NewServer(deps Deps) *Server {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		resolver:       deps.Resolver,
		orchestrator:   deps.Orchestrator,
		registry:       deps.Registry,
		traces:         deps.Traces,
		mrf:            deps.MRF,
		log:            deps.Log,
		requestTimeout: deps.RequestTimeout,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(zapRequestLogger(deps.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	r.Use(metricsMiddleware)
	r.Use(chimiddleware.Timeout(s.requestTimeout))
	r.Use(requireAPIKey(deps.APIKeys, deps.AdminAPIKeys))
	r.Use(rateLimitMiddleware(deps.RateLimitPerMinute, deps.RateLimitBurst))

	r.Get("/healthz", s.handleHealth)
	r.Get("/geography/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())

	r.Route("/geography", func(r chi.Router) {
		r.Get("/resolve", s.handleResolveGeography)
	})
	r.Route("/pricing", func(r chi.Router) {
		r.Get("/codes/price", s.handlePriceCode)
		r.Post("/price", s.handlePricePlan)
		r.Post("/compare", s.handleCompare)
	})
	r.Route("/trace", func(r chi.Router) {
		r.Get("/{runID}", s.handleLookupRun)
		r.Get("/{runID}/replay", requireAdmin(s.handleReplayRun))
	})
	r.Route("/snapshots", func(r chi.Router) {
		r.Post("/pin", requireAdmin(s.handlePinSnapshot))
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func zapRequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

// withRequestContext is a helper handlers use to attach a bounded
// context derived from the server's default request timeout when the
// inbound request carries none.
func (s *Server) withRequestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if _, ok := r.Context().Deadline(); ok {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), s.requestTimeout)
}
