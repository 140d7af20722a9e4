package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/config"
)

// Server runs the HTTP API as a lifecycle-managed service.
type Server struct {
	srv    *http.Server
	grace  func() (context.Context, context.CancelFunc)
	logger *zap.Logger
}

// NewServer creates an HTTP server for the handler using the listener
// settings from cfg.
//
// Precondition: handler and logger must be non-nil.
func NewServer(cfg config.HTTPConfig, handler *Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler.Router(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		grace: func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		},
		logger: logger,
	}
}

// Start listens and serves, blocking until Stop is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("http api listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully, giving in-flight requests the
// configured grace period.
func (s *Server) Stop() {
	ctx, cancel := s.grace()
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}
