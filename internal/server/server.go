// Package server provides the sandwich HTTP server.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/config"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/crud"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/events"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/httputil"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/metrics"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/telemetry"
)

const (
	serviceName = "chamicore-sandwich"
	apiVersion  = "sandwich/v1"
	maxBodySize = 1 << 20
)

// Server wraps HTTP routes and dependencies.
type Server struct {
	store       *store.Store
	services    *crud.Services
	cfg         config.Config
	version     string
	commit      string
	buildDate   string
	openapiSpec []byte
	publisher   events.Publisher
	metrics     *metrics.Metrics
	router      chi.Router
}

// Option configures server construction.
type Option func(*Server)

// WithOpenAPISpec sets the embedded OpenAPI bytes.
func WithOpenAPISpec(spec []byte) Option {
	return func(s *Server) {
		s.openapiSpec = spec
	}
}

// WithPublisher sets the change-event publisher. Events are dropped when
// no publisher is given.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithMetrics enables HTTP instrumentation and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New constructs a sandwich API server over st.
func New(st *store.Store, cfg config.Config, version, commit, buildDate string, opts ...Option) *Server {
	s := &Server{
		store:     st,
		cfg:       cfg,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.services = crud.NewServices(st, s.publisher)
	s.router = s.buildRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(telemetry.HTTPTracing(serviceName))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLogger(log.Logger))
	r.Use(httputil.Recoverer)
	r.Use(httputil.SecureHeaders)
	r.Use(httputil.BodyLimit(maxBodySize))
	r.Use(middleware.StripSlashes)
	r.Use(httputil.RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
	r.Use(httputil.ContentType)
	r.Use(httputil.APIVersion(apiVersion))
	r.Use(httputil.CacheControl)
	r.Use(httputil.CORS(s.cfg.CORSOrigins))

	// Set before any Route call so mounted subrouters inherit them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondProblemf(w, r, http.StatusNotFound, "no route for %s", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondProblemf(w, r, http.StatusMethodNotAllowed, "method %s is not allowed on %s", r.Method, r.URL.Path)
	})

	r.Group(func(r chi.Router) {
		r.Method(http.MethodGet, "/health", httputil.HealthHandler())
		r.Method(http.MethodGet, "/readiness", httputil.ReadinessHandler(func(req *http.Request) error {
			return s.store.Ping(req.Context())
		}))
		r.Method(http.MethodGet, "/version", httputil.VersionHandler(s.version, s.commit, s.buildDate))
		if s.cfg.MetricsEnabled && s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}
		r.Method(http.MethodGet, "/api/openapi.yaml", httputil.OpenAPIHandler(s.openapiSpec))
	})

	mountResource(r, orderResource(s.services.Orders))
	mountResource(r, orderDetailResource(s.services.OrderDetails))
	mountResource(r, sandwichResource(s.services.Sandwiches))
	mountResource(r, recipeResource(s.services.Recipes))
	mountResource(r, resourceResource(s.services.Resources))

	return r
}
