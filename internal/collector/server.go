package collector

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentObserve/internal/tracing"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options carries the server's injectable collaborators. Zero values get
// sensible defaults; tests inject a fresh registry and a no-op logger.
type Options struct {
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
	Tracer   *tracing.Tracer
}

// Server is the collector's HTTP surface.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	store   *Store
	hub     *Hub
	router  *gin.Engine
	http    *http.Server
	started time.Time
}

// New wires the router, hub, and store.
func New(cfg *config.Config, opts Options) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefault()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.New("collector", tracing.NewConsoleExporter(opts.Logger), opts.Logger)
	}

	logger := opts.Logger.Component("collector")

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		store:   NewStore(DefaultRetention),
		hub:     NewHub(opts.Logger, opts.Metrics),
		started: time.Now(),
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(corsMiddleware())
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(rateLimitMiddleware(RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/stats", s.handleStats)

	router.POST("/events/ingest", s.handleIngestEvents)
	router.GET("/events/recent", s.handleRecentEvents)

	router.POST("/traces/ingest", s.handleIngestSpans)
	router.GET("/traces/recent", s.handleRecentSpans)

	router.GET("/stream", s.hub.ServeWS)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	s.router = router
	return s
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	addr := s.cfg.Collector.Host + ":" + s.cfg.Collector.Port
	s.logger.Info("collector listening", zap.String("addr", addr))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, disconnects viewers, and flushes the
// tracer.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("collector shutting down")

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.hub.Close()
	if terr := s.tracer.Shutdown(ctx); terr != nil && err == nil {
		err = terr
	}
	return err
}
