package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/papercomputeco/quill/api/mcp"
	"github.com/papercomputeco/quill/pkg/storage"
)

// Server is the workspace API server.
type Server struct {
	config Config
	store  storage.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The store is injected to allow sharing with other components
// (e.g., the relay's turn recorder when both run in one process).
func NewServer(config Config, store storage.Driver, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Params and queries become document ids that outlive the request.
		Immutable: true,
	})

	s := &Server{
		config: config,
		store:  store,
		logger: logger,
		app:    app,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Store:  store,
		Noop:   config.DisableMCP,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create MCP server: %w", err)
	}

	// The MCP transport streams its own responses; mount it ahead of the
	// compression middleware.
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	app.Use(compress.New())

	app.Get("/ping", s.handlePing)

	ws := app.Group("/api/workspace")

	ws.Get("/pages", s.handleListPages)
	ws.Post("/pages", s.handleCreatePage)
	ws.Put("/pages", s.handleUpdatePage)
	ws.Delete("/pages", s.handleDeletePage)
	ws.Get("/pages/:id", s.handleGetPage)
	ws.Put("/pages/:id", s.handleUpdatePage)
	ws.Delete("/pages/:id", s.handleDeletePage)

	ws.Get("/tables", s.handleListTables)
	ws.Post("/tables", s.handleCreateTable)
	ws.Put("/tables", s.handleUpdateTable)
	ws.Delete("/tables", s.handleDeleteTable)
	ws.Get("/tables/:id", s.handleGetTable)
	ws.Put("/tables/:id", s.handleUpdateTable)
	ws.Delete("/tables/:id", s.handleDeleteTable)
	ws.Get("/tables/:id/rows", s.handleListRows)
	ws.Post("/tables/:id/rows", s.handleAppendRow)

	ws.Post("/context", s.handleBuildContext)

	app.Get("/api/chat/turns", s.handleListTurns)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		"listen", listener.Addr().String(),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
