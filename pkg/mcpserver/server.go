// Package mcpserver exposes the three dupscan entry points as MCP tools
// over stdio. It is kept separate from cmd/dupcheck so the tool surface
// can be embedded without pulling in CLI flag handling.
package mcpserver

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nocopy/dupcheck/internal/version"
)

// mcpLog writes to stderr; stdout is reserved for the MCP JSON-RPC stream.
var mcpLog = log.New(os.Stderr, "[dupcheck-mcp] ", log.Ltime)

// Server wraps the registered MCP tool set.
type Server struct {
	server *mcp.Server
}

// New constructs a Server with no tools registered yet; call Run to
// register and serve.
func New() *Server {
	return &Server{}
}

// Run registers every tool and serves over stdio until the context is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dupcheck",
			Version: version.Short(),
		},
		nil,
	)
	s.server = srv

	s.registerScanTools()

	mcpLog.Printf("dupcheck MCP server ready, listening on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + message}},
		IsError: true,
	}
}
