// Package server exposes discovery and apply pack building over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/filtering"
	"github.com/spigell/jobflow/internal/source"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Sources []source.Source
	Filters []filtering.Filter
	TopN    int
	Logger  *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger
	router *gin.Engine
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{opts: opts, logger: logger}

	r := gin.New()
	r.Use(recovery(logger))
	r.Use(requestLogger(logger))

	r.GET("/health", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/discover", s.discover)
		v1.POST("/apply-pack", s.applyPack)
	}

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
