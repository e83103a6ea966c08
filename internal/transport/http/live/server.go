package livehttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"signalrelay/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes the read-only status API (/healthz + /api/live).
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the status server dependencies.
type ServerConfig struct {
	Addr   string
	Status StatusProvider
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Status == nil {
		return nil, errors.New("live http server requires a status provider")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9981"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	NewRouter(cfg.Status).Register(router.Group("/api/live"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
