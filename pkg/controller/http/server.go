package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/emailfinder/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr           string
	maxUploadBytes int64
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithMaxUploadBytes limits the size of /process request bodies; 0 means unlimited
func WithMaxUploadBytes(n int64) Option {
	return func(c *config) {
		c.maxUploadBytes = n
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	processUC interfaces.ProcessUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/", handleUploadPage)
	router.Get("/health", newHealthHandler(cfg.maxUploadBytes))

	processHandler := NewProcessHandler(processUC, cfg.maxUploadBytes)
	router.Post("/process", processHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
