// Package mcp provides an MCP (Model Context Protocol) server that exposes the
// quill workspace to MCP clients: browsing pages and building chat context.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/utils"
)

type Config struct {
	// Store reads workspace pages and tables
	Store storage.Driver

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the workspace tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "quill",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Store == nil {
			return nil, errors.New("storage driver is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        listPagesToolName,
			Description: listPagesDescription,
		}, s.handleListPages)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        getPageToolName,
			Description: getPageDescription,
		}, s.handleGetPage)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        buildContextToolName,
			Description: buildContextDescription,
		}, s.handleBuildContext)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying server, for in-process sessions.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
