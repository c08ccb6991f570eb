// Package api serves the answering endpoints and the workspace commands over HTTP.
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"novachat/app/client/answer"
	"novachat/app/config"
	"novachat/app/service/assistant"
	"novachat/app/service/workspace"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

type Answerer interface {
	Ask(ctx context.Context, req *answer.AskRequest) (*answer.AskResponse, error)
}

type Pinger interface {
	Health(ctx context.Context) error
}

type Server struct {
	ctx    context.Context
	listen string

	app       *fiber.App
	validate  *validator.Validate
	answerer  Answerer
	backend   Pinger
	workspace *workspace.Service

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewServer(
		do.MustInvoke[context.Context](di),
		cfg.Server.Listen,
		do.MustInvoke[*assistant.Service](di),
		do.MustInvoke[*answer.Client](di),
		do.MustInvoke[*workspace.Service](di),
	), nil
}

func NewServer(ctx context.Context, listen string, answerer Answerer, backend Pinger, ws *workspace.Service) *Server {
	s := &Server{
		ctx:       ctx,
		listen:    listen,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		answerer:  answerer,
		backend:   backend,
		workspace: ws,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "novachat",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Post("/ask", s.ask)

	api := s.app.Group("/api")
	api.Get("/state", s.state)
	api.Get("/backend/health", s.backendHealth)
	api.Post("/messages", s.sendMessage)
	api.Post("/suggestions", s.sendSuggestion)
	api.Post("/regenerate/:messageId", s.regenerate)
	api.Post("/stop", s.stop)
	api.Post("/threads", s.newThread)
	api.Put("/threads/:id/active", s.selectThread)
	api.Delete("/threads/:id", s.deleteThread)
	api.Post("/threads/:id/messages/:messageId/copy", s.copyMessage)
	api.Get("/actions", s.actions)
	api.Post("/actions/:key", s.toggleAction)
	api.Delete("/actions", s.clearAction)
	api.Put("/web-search", s.setWebSearch)
	api.Post("/web-search/toggle", s.toggleWebSearch)
}

// Run blocks until the listener stops.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.listen)

	return s.app.Listen(s.listen)
}

// Shutdown stops the listener once; later calls report the first result.
func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.app.ShutdownWithTimeout(shutdownTimeout)
	})

	return s.shutdownErr
}
