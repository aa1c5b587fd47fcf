// Package server exposes the rule engine over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/internal/config"
	"github.com/ezachrisen/verdict/store"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Server serves the rule API. Stored rules are kept parsed in a vault so
// evaluating a stored rule does not re-parse it.
type Server struct {
	app    *fiber.App
	engine *verdict.Engine
	store  store.Store
	vault  *verdict.Vault
	log    *zap.Logger
}

// New loads the stored rules into a vault and sets up the routes. A stored
// rule that no longer parses is an error.
func New(ctx context.Context, cfg config.ServerConfig, e *verdict.Engine, st store.Store, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	rules, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored rules: %w", err)
	}
	initial := make(map[int64]string, len(rules))
	for _, r := range rules {
		initial[r.ID] = r.Text
	}
	vault, err := verdict.NewVault(e, initial)
	if err != nil {
		return nil, err
	}

	s := &Server{
		engine: e,
		store:  st,
		vault:  vault,
		log:    log,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "verdict",
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:             cfg.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	s.setupMiddleware()
	s.setupRoutes()
	log.Info("rules loaded", zap.Int("count", vault.Len()))
	return s, nil
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", s.health)

	s.app.Post("/create_rule", s.createRule)
	s.app.Post("/combine_rules", s.combineRules)
	s.app.Post("/evaluate_rule", s.evaluateRule)

	rules := s.app.Group("/rules")
	rules.Get("/", s.listRules)
	rules.Get("/:id", s.getRule)
	rules.Delete("/:id", s.deleteRule)
	rules.Post("/:id/evaluate", s.evaluateStored)
}

// App returns the fiber application, for tests and for mounting.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
