package mcp

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/repository"
	"github.com/m-mizutani/engram/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const contentPreviewLength = 100

type rememberParams struct {
	Content    string         `json:"content"`
	Type       string         `json:"type,omitempty"`
	Importance *float64       `json:"importance,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (s *Server) remember(ctx context.Context, req *mcp.CallToolRequest, params *rememberParams) (*mcp.CallToolResult, any, error) {
	if params.Content == "" {
		return nil, nil, goerr.New("content is required")
	}

	memory, err := s.backend.Remember(ctx, repository.RememberInput{
		Content:    params.Content,
		Type:       model.MemoryType(params.Type),
		Importance: params.Importance,
		Metadata:   params.Metadata,
	})
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to store memory")
	}

	logging.From(ctx).Info("memory stored", "id", memory.ID, "type", memory.Type)

	text := fmt.Sprintf("Stored memory %s (type: %s, importance: %.2f)",
		memory.ID, memory.Type, memory.Importance)

	return textResult(text), memory, nil
}

type recallParams struct {
	Query string   `json:"query"`
	Limit int      `json:"limit,omitempty"`
	Types []string `json:"types,omitempty"`
}

type recallMatch struct {
	Memory    *model.Memory `json:"memory"`
	Score     float64       `json:"score"`
	Relevance string        `json:"relevance"`
}

func (s *Server) recall(ctx context.Context, req *mcp.CallToolRequest, params *recallParams) (*mcp.CallToolResult, any, error) {
	if params.Query == "" {
		return nil, nil, goerr.New("query is required")
	}

	var types []model.MemoryType
	for _, t := range params.Types {
		types = append(types, model.MemoryType(t))
	}

	results, err := s.backend.Recall(ctx, params.Query, repository.QueryOptions{
		Limit: params.Limit,
		Types: types,
	})
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to recall memories")
	}

	if len(results) == 0 {
		return textResult("No relevant memories found."), []recallMatch{}, nil
	}

	matches := make([]recallMatch, 0, len(results))
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, fmt.Sprintf("Found %d relevant memories:", len(results)))
	for i, r := range results {
		relevance := fmt.Sprintf("%d%%", int(math.Round(r.Score*100)))
		matches = append(matches, recallMatch{
			Memory:    r.Memory,
			Score:     r.Score,
			Relevance: relevance,
		})
		lines = append(lines, fmt.Sprintf("%d. [%s] %s (type: %s, id: %s)",
			i+1, relevance, r.Memory.Content, r.Memory.Type, r.Memory.ID))
	}

	return textResult(strings.Join(lines, "\n")), matches, nil
}

type forgetParams struct {
	MemoryID string `json:"memory_id"`
	Reason   string `json:"reason,omitempty"`
}

type forgetOutput struct {
	MemoryID string `json:"memoryId"`
	Removed  bool   `json:"removed"`
}

func (s *Server) forget(ctx context.Context, req *mcp.CallToolRequest, params *forgetParams) (*mcp.CallToolResult, any, error) {
	if params.MemoryID == "" {
		return nil, nil, goerr.New("memory_id is required")
	}

	removed, err := s.backend.Forget(ctx, model.MemoryID(params.MemoryID), params.Reason)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to forget memory")
	}

	out := forgetOutput{MemoryID: params.MemoryID, Removed: removed}
	if !removed {
		return textResult(fmt.Sprintf("No memory found with ID %s", params.MemoryID)), out, nil
	}

	logging.From(ctx).Info("memory forgotten", "id", params.MemoryID, "reason", params.Reason)
	return textResult(fmt.Sprintf("Forgot memory %s", params.MemoryID)), out, nil
}

type listMemoriesParams struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) listMemories(ctx context.Context, req *mcp.CallToolRequest, params *listMemoriesParams) (*mcp.CallToolResult, any, error) {
	memories, err := s.backend.List(ctx, 0, params.Limit)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list memories")
	}

	if len(memories) == 0 {
		return textResult("No memories stored yet."), []*model.Memory{}, nil
	}

	lines := make([]string, 0, len(memories)+1)
	lines = append(lines, fmt.Sprintf("%d recent memories:", len(memories)))
	for i, m := range memories {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s (id: %s, importance: %.2f)",
			i+1, m.Type, truncateContent(m.Content), m.ID, m.Importance))
	}

	return textResult(strings.Join(lines, "\n")), memories, nil
}

type memoryStatusParams struct{}

type memoryStatusOutput struct {
	BackendType       string   `json:"backendType"`
	Connected         bool     `json:"connected"`
	SupportedFeatures []string `json:"supportedFeatures"`
	Hint              string   `json:"hint"`
}

func (s *Server) memoryStatus(ctx context.Context, req *mcp.CallToolRequest, params *memoryStatusParams) (*mcp.CallToolResult, any, error) {
	info := s.backend.Info()

	hint := "Memories are kept on a remote memory service with semantic search."
	if info.BackendType == "local" {
		hint = "Memories are kept in a local file with keyword search. Set ENGRAM_MEMORY_API_URL to use a remote memory service."
	}

	out := memoryStatusOutput{
		BackendType:       info.BackendType,
		Connected:         info.Connected,
		SupportedFeatures: info.SupportedFeatures,
		Hint:              hint,
	}

	text := fmt.Sprintf("Memory backend: %s (connected: %t)\nFeatures: %s\n%s",
		info.BackendType, info.Connected, strings.Join(info.SupportedFeatures, ", "), hint)

	return textResult(text), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// truncateContent shortens long memory content for list display
func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= contentPreviewLength {
		return content
	}
	return string(runes[:contentPreviewLength]) + "..."
}
