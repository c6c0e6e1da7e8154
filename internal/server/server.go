package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"livechart/internal/feed"
	"livechart/internal/view"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the session's views over HTTP.
type Server struct {
	session *view.Session
	logger  *zap.Logger
	engine  *gin.Engine

	// selections run detached from the request on this context
	baseCtx context.Context
	checks  map[string]HealthChecker
}

// HealthChecker is a backing dependency reported by /healthz.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

type Option func(*Server)

// WithHealthCheck adds a named dependency to /healthz. An unhealthy
// dependency turns the response into 503.
func WithHealthCheck(name string, c HealthChecker) Option {
	return func(s *Server) { s.checks[name] = c }
}

func New(ctx context.Context, session *view.Session, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		session: session,
		logger:  logger,
		engine:  gin.New(),
		baseCtx: ctx,
		checks:  make(map[string]HealthChecker),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Use(gin.Recovery(), s.accessLog())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	catalog := s.engine.Group("/catalog")
	{
		catalog.GET("/symbols", func(c *gin.Context) { render(c, s.session.Catalog.Symbols.Get()) })
		catalog.GET("/strategies", func(c *gin.Context) { render(c, s.session.Catalog.Strategies.Get()) })
	}

	s.engine.GET("/selection", s.getSelection)
	s.engine.PUT("/selection", s.putSelection)

	views := s.engine.Group("/view")
	{
		views.GET("/history", func(c *gin.Context) { render(c, s.session.History.Get()) })
		views.GET("/strategy", func(c *gin.Context) { render(c, s.session.Strategy.Get()) })
		views.GET("/live", func(c *gin.Context) { render(c, s.session.Live.Get()) })
		views.GET("/merged", func(c *gin.Context) { render(c, s.session.Merged.Get()) })
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type stateResponse struct {
	Data    any    `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func render[T any](c *gin.Context, st view.State[T]) {
	resp := stateResponse{Data: st.Data, Loading: st.Loading}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := make(map[string]bool, len(s.checks))
	for name, check := range s.checks {
		healthy := check.IsHealthy(ctx)
		checks[name] = healthy
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			s.logger.Warn("health check failed", zap.String("dependency", name))
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"selection": s.session.Selection(),
		"live":      s.session.Live.Connected(),
	})
}

func (s *Server) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Selection())
}

// putSelection switches the session to a new identity. The views load in
// the background; clients poll the /view endpoints for progress.
func (s *Server) putSelection(c *gin.Context) {
	var id feed.Identity
	if err := c.ShouldBindJSON(&id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id.Symbol = strings.ToUpper(strings.TrimSpace(id.Symbol))
	id.Strategy = strings.TrimSpace(id.Strategy)
	if id.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	go s.session.Select(s.baseCtx, id)
	c.JSON(http.StatusAccepted, id)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
