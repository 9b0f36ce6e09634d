package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/metrics"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Config wires the server's collaborators. Zero values get defaults.
type Config struct {
	// Assessment options applied to every run; a per-request seed is
	// appended after them.
	Assessment    []assessment.Option
	Store         store.Store
	Metrics       *metrics.Collector
	Audit         audit.Logger
	ProfilesDir   string
	DefaultDomain string
	Version       string

	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	JWTSecret      string

	Logger *slog.Logger
}

// Server is the assessment HTTP API.
type Server struct {
	cfg       Config
	base      *assessment.Orchestrator
	evaluator *domain.Evaluator
	limiter   *RateLimiter
	logger    *slog.Logger
}

// New validates cfg and builds a server.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.Nop{}
	}
	if cfg.DefaultDomain == "" {
		cfg.DefaultDomain = domain.DefaultCode
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "api")

	opts := append(slices.Clone(cfg.Assessment), assessment.WithAuditLogger(cfg.Audit))
	base, err := assessment.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	if _, err := domain.Resolve(cfg.ProfilesDir, cfg.DefaultDomain); err != nil {
		return nil, fmt.Errorf("api: default domain: %w", err)
	}
	evaluator, err := domain.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	return &Server{
		cfg:       cfg,
		base:      base,
		evaluator: evaluator,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:    logger,
	}, nil
}

// Handler returns the routed, middleware-wrapped API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	mux.HandleFunc("GET /api/v1/dimensions", s.handleDimensions)
	mux.HandleFunc("GET /api/v1/domains", s.handleDomains)
	mux.HandleFunc("POST /api/v1/assessments", s.handleCreateAssessment)
	mux.HandleFunc("GET /api/v1/assessments/{id}", s.handleGetAssessment)
	mux.HandleFunc("GET /api/v1/assessments/{id}/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/v1/systems/{name}/assessments", s.handleListAssessments)
	mux.HandleFunc("GET /api/v1/systems/{name}/latest", s.handleLatestAssessment)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, r, "No route for "+r.Method+" "+r.URL.Path)
	})

	var h http.Handler = mux
	h = Auth(NewJWTValidator(s.cfg.JWTSecret))(h)
	h = s.limiter.Middleware(h)
	h = CORS(s.cfg.AllowedOrigins)(h)
	h = AccessLog(s.logger)(h)
	h = RequestID(h)
	return h
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.limiter.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
