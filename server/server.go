// Package server exposes the playground over HTTP.
//
// The transport is a thin boundary: it binds request bodies, picks an
// engine from the registry, and maps outcomes onto the wire contract.
// All transformation semantics live below it.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/config"
	"github.com/hookline/beforesend/samples"
	"github.com/hookline/beforesend/telemetry"
)

// Server is the playground HTTP service.
type Server struct {
	router  *gin.Engine
	log     *zap.Logger
	cfg     config.Config
	library *samples.Library
}

// New builds the service router. A nil logger logs nothing; a nil
// library serves the builtin samples.
func New(cfg config.Config, library *samples.Library, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if library == nil {
		library = samples.NewLibrary("", log)
	}
	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:  gin.New(),
		log:     log,
		cfg:     cfg,
		library: library,
	}
	s.router.Use(s.requestLog(), s.recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.POST("/transform", s.handleTransform)
	s.router.POST("/validate", s.handleValidate)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/samples", s.handleSamples)
	s.router.GET("/samples/:name", s.handleSample)
	if s.cfg.Metrics.On() {
		s.router.GET("/metrics", gin.WrapH(telemetry.Handler()))
	}
}

// Handler returns the root http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.log.Info("playground listening",
		zap.String("addr", s.cfg.Server.Addr),
		zap.Strings("engines", beforesend.Names()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// recovery turns handler panics into a generic server error. Raw
// internals never reach the caller.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("handler panic", zap.Any("panic", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Unexpected error while processing request",
				})
			}
		}()
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"engines": beforesend.Names(),
	})
}

func (s *Server) handleSamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"samples": s.library.List()})
}

func (s *Server) handleSample(c *gin.Context) {
	sample, ok := s.library.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sample not found"})
		return
	}
	c.JSON(http.StatusOK, sample)
}
