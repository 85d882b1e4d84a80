// Package mcp exposes the assistant as Model Context Protocol tools so
// other agents can make blacknox speak or hold a turn of conversation.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/blacknox/internal/assistant"
	"github.com/emmett/blacknox/internal/log"
	"github.com/emmett/blacknox/internal/models"
)

// Config holds server identity
type Config struct {
	ServerName    string
	ServerVersion string
}

// Server is an MCP server backed by the assistant
type Server struct {
	config    Config
	mcpServer *sdk.Server
	svc       *assistant.Service
	models    *models.Manager
	logger    *slog.Logger
}

// NewServer creates the server. mgr may be nil, which hides list_models.
func NewServer(svc *assistant.Service, mgr *models.Manager, cfg Config) *Server {
	if cfg.ServerName == "" {
		cfg.ServerName = "blacknox"
	}

	s := &Server{
		config: cfg,
		svc:    svc,
		models: mgr,
		logger: log.Component("mcp"),
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()
	return s
}

// Start serves over stdin/stdout until ctx is done or the client leaves
func (s *Server) Start(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Run serves over transport
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.logger.Info("MCP server starting", "name", s.config.ServerName, "version", s.config.ServerVersion)
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "speak",
		Description: "Say text out loud through the assistant's voice. Returns once the text is queued.",
	}, s.handleSpeak)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "converse",
		Description: "Send one utterance to blacknox and get its reply. The reply is also spoken.",
	}, s.handleConverse)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "get_user_name",
		Description: "Return the name blacknox currently uses for the user",
	}, s.handleGetUserName)

	if s.models != nil {
		sdk.AddTool(s.mcpServer, &sdk.Tool{
			Name:        "list_models",
			Description: "List the downloaded offline speech recognition models",
		}, s.handleListModels)
	}
}
