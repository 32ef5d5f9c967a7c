package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/hr-gateway/forward"
	"github.com/jrsteele09/hr-gateway/internal/config"
	"github.com/jrsteele09/hr-gateway/internal/metrics"
	"github.com/jrsteele09/hr-gateway/tenants"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const revokedCleanupSchedule = "@every 5m"

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	tenants   tenants.Repo
	forwarder *forward.Forwarder
	tokens    *token.Manager // nil when no signing key can be derived
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	jobs      *cron.Cron

	httpClient *http.Client
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithHTTPClient sets the client used for upstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) {
		s.httpClient = c
	}
}

// New builds the gateway from an immutable configuration snapshot.
func New(cfg config.Config, options ...Option) (*Server, error) {
	registry, err := tenants.NewRegistry(cfg.GetTenants())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to build tenant registry: %w", err)
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		tenants:  registry,
		registry: prometheus.NewRegistry(),
		jobs:     cron.New(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = metrics.New(s.registry)

	signer, err := token.SignerFromConfig(cfg.GetSessionSigningKey(), cfg.GetAPIKey())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token signer: %w", err)
	}
	if signer != nil {
		s.tokens = token.New(signer, cfg.GetSessionDuration())
	} else if cfg.GetRequireSessionToken() {
		return nil, errors.New("[Server New] session tokens are required but neither SESSION_SIGNING_KEY nor API_KEY is set")
	}

	if cfg.GetAPIKey() == "" {
		log.Warn().Msg("API_KEY is not set, every forwarded route will answer 500")
	}

	fwdOptions := []forward.ForwarderOption{forward.WithMetrics(s.metrics)}
	if s.httpClient != nil {
		fwdOptions = append(fwdOptions, forward.WithHTTPClient(s.httpClient))
	}
	s.forwarder = forward.New(registry, cfg, cfg.GetAPIKey(), cfg.GetFallbackAPIURL(), fwdOptions...)

	if s.tokens != nil {
		if _, err := s.jobs.AddFunc(revokedCleanupSchedule, s.cleanupRevokedTokens); err != nil {
			return nil, fmt.Errorf("[Server New] failed to schedule token cleanup: %w", err)
		}
	}

	s.initRoutes()
	s.logRoutes()

	for _, t := range registry.List() {
		log.Info().Str("tenant", t.Name).Str("url", t.BaseURL).Msg("Tenant registered")
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start runs the background jobs.
func (s *Server) Start() {
	s.jobs.Start()
}

// Stop waits for running background jobs, or until ctx is done.
func (s *Server) Stop(ctx context.Context) {
	select {
	case <-s.jobs.Stop().Done():
	case <-ctx.Done():
	}
}

// Registry exposes the prometheus registry behind /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) cleanupRevokedTokens() {
	if n := s.tokens.CleanupRevoked(); n > 0 {
		log.Debug().Int("removed", n).Msg("Cleaned up revoked session tokens")
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s", displayMethod, path)
}
