package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	daybook "github.com/unowned-ai/daybook/pkg"
)

type DaybookMCPServer struct {
	mcpServer *server.MCPServer
	tools     *Tools
}

// NewDaybookMCPServer builds an MCP server over tools. Register the tools
// before calling Start.
func NewDaybookMCPServer(tools *Tools) *DaybookMCPServer {
	s := server.NewMCPServer(
		"Daybook MCP Server",
		daybook.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)
	return &DaybookMCPServer{mcpServer: s, tools: tools}
}

// RegisterTools adds the journal tools and returns their names.
func (s *DaybookMCPServer) RegisterTools(overview bool) []string {
	return s.tools.Register(s.mcpServer, overview)
}

// Start runs the stdio event loop until stdin closes.
func (s *DaybookMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *DaybookMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
