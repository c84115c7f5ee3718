// Package api serves the form operations over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/a3tai/pdf-form-filler/internal/config"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	"github.com/sirupsen/logrus"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// FormService is the part of pdf.Service the handlers depend on
type FormService interface {
	FillPDF(req pdf.FillRequest) (*pdf.FillResult, error)
	DiscoverFields(req pdf.DiscoverRequest) (*pdf.DiscoverResult, error)
}

// Endpoint describes one route for the index and 404 responses
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var endpoints = []Endpoint{
	{Method: http.MethodGet, Path: "/", Description: "Service information"},
	{Method: http.MethodGet, Path: "/health", Description: "Health check"},
	{Method: http.MethodPost, Path: "/fill-pdf", Description: "Fill and flatten a PDF form"},
	{Method: http.MethodPost, Path: "/discover-fields", Description: "List the form fields of a PDF"},
}

// Server is the HTTP front-end. It is created once per process and runs
// until its context is cancelled.
type Server struct {
	config     *config.Config
	service    FormService
	logger     *logrus.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, service FormService, logger *logrus.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Server{
		config:  cfg,
		service: service,
		logger:  logger,
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /fill-pdf", s.handleFillPDF)
	mux.HandleFunc("POST /discover-fields", s.handleDiscoverFields)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = s.cors(h)
	h = s.logRequests(h)
	h = s.recoverPanics(h)
	return h
}

// Run binds the configured address and serves until ctx is cancelled.
// A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.WithFields(logrus.Fields{
		"address":     ln.Addr().String(),
		"environment": s.config.Environment,
	}).Infof("PDF Service running on port %d", s.config.Port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
