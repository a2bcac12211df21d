// Package server exposes analyses over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
	"github.com/ppiankov/claimcheck/internal/worker"
)

const (
	limiterIdle      = 10 * time.Minute
	shutdownTimeout  = 15 * time.Second
	providerProbeTTL = 10 * time.Second
)

// Analyzer runs one analysis
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
}

// Server is the HTTP API
type Server struct {
	cfg      model.ServerConfig
	analyzer Analyzer
	provider llm.Provider
	fetcher  *pipeline.Fetcher
	limiter  *worker.Limiter
	logger   *slog.Logger
	version  string
	engine   *gin.Engine
}

// New builds the router. provider backs /health/provider; fetcher downloads
// caption files named by captionsUrl.
func New(cfg model.ServerConfig, analyzer Analyzer, provider llm.Provider, fetcher *pipeline.Fetcher, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registerJSONTagNames()

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		provider: provider,
		fetcher:  fetcher,
		logger:   logger,
		version:  version,
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RatePerSecond, cfg.Burst)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestIDMiddleware(), accessLogMiddleware(s.logger), recoveryMiddleware(s.logger))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		abortWithCode(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/health/provider", s.handleProviderHealth)

	api := r.Group("/api")
	if s.limiter != nil {
		api.Use(rateLimitMiddleware(s.limiter))
	}
	if s.cfg.MaxBodyBytes > 0 {
		api.Use(bodyLimitMiddleware(s.cfg.MaxBodyBytes))
	}
	api.POST("/text-analysis", s.handleTextAnalysis)
	api.POST("/transcript", s.handleTranscript)
	api.POST("/video-analysis", s.handleVideoAnalysis)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "origins", s.cfg.AllowedOrigins)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdle); n > 0 {
				s.logger.Debug("pruned idle client limiters", "count", n, "remaining", s.limiter.Len())
			}
		}
	}
}

var tagNamesOnce sync.Once

// registerJSONTagNames makes validation errors name fields as clients send them
func registerJSONTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}
