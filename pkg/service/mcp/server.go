package mcp

import (
	"context"
	"net/http"

	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes memory tools to an AI assistant over MCP. All tool
// failures are reported as in-band tool errors so a single bad call never
// takes the process down; only backend initialization failures abort
// startup, and those happen before the server runs.
type Server struct {
	backend repository.Backend
	server  *mcp.Server
}

// New creates an MCP server with the memory tools registered against the
// given backend. The backend must already be initialized.
func New(backend repository.Backend, version string) *Server {
	s := &Server{backend: backend}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "engram",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "remember",
		Description: "Store a piece of information in persistent memory for later recall",
		InputSchema: rememberSchema(),
	}, s.remember)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "recall",
		Description: "Search stored memories by relevance to a query",
		InputSchema: recallSchema(),
	}, s.recall)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "forget",
		Description: "Delete a stored memory by its ID",
		InputSchema: forgetSchema(),
	}, s.forget)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_memories",
		Description: "List recently stored memories",
		InputSchema: listMemoriesSchema(),
	}, s.listMemories)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "memory_status",
		Description: "Show which memory backend is active and what it supports",
		InputSchema: memoryStatusSchema(),
	}, s.memoryStatus)

	s.server = srv
	return s
}

// Run serves MCP requests over the given transport until the session
// ends or the context is cancelled
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// HTTPHandler returns a streamable HTTP handler for serving MCP over HTTP
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
