package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	githubcontroller "github.com/m-mizutani/releasebot/pkg/controller/github"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// StatusProvider exposes the report of the last finished cycle
type StatusProvider interface {
	LastReport() *model.CycleReport
}

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	repository    string
	status        StatusProvider
	journal       interfaces.Journal
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithRepository limits webhook events to one repository ("owner/name")
func WithRepository(repository string) Option {
	return func(c *config) {
		c.repository = repository
	}
}

// WithStatus enables GET /status
func WithStatus(status StatusProvider) Option {
	return func(c *config) {
		c.status = status
	}
}

// WithJournal enables GET /journal
func WithJournal(journal interfaces.Journal) Option {
	return func(c *config) {
		c.journal = journal
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
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

	// Health check
	router.Get("/health", handleHealth(cfg.repository))

	if cfg.status != nil {
		router.Get("/status", handleStatus(cfg.status))
	}
	if cfg.journal != nil {
		router.Get("/journal", handleJournal(cfg.journal))
	}

	// Webhook endpoint
	processor := githubcontroller.NewEventProcessor(webhookUC, cfg.repository)
	webhookHandler := NewWebhookHandler(cfg.webhookSecret, processor)
	router.Post("/hooks/github", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
