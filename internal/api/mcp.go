package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shutterbot/shutterbot/internal/content"
	"github.com/shutterbot/shutterbot/internal/pipeline"
	"github.com/shutterbot/shutterbot/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store  *storage.Store
	Engine *pipeline.Engine
}

// NewMCPServer creates an MCP server exposing the ranking engine and the
// content catalog to MCP clients.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"shutterbot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("shutterbot — query understanding and content ranking for a photography business site."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Classify a visitor query and return ranked site content or a clarifying question."),
			mcp.WithString("query", mcp.Description("The visitor's question"), mcp.Required()),
			mcp.WithString("previous_query", mcp.Description("Prior query when this is a follow-up to a clarification")),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("search_content",
			mcp.WithDescription("Keyword-search the ingested content catalog by kind."),
			mcp.WithString("keywords", mcp.Description("Space-separated keywords"), mcp.Required()),
			mcp.WithString("kind", mcp.Description("Content kind: article, event, product, service or landing"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchContent(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"content://interactions/recent",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 answered visitor queries (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		resp := deps.Engine.ClassifyAndRank(ctx, pipeline.Query{
			RawText:       query,
			PreviousQuery: req.GetString("previous_query", ""),
		})

		b, err := json.Marshal(toAskResponse(resp))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchContent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keywords, err := req.RequireString("keywords")
		if err != nil {
			return mcpError("keywords is required"), nil
		}
		kindStr, err := req.RequireString("kind")
		if err != nil {
			return mcpError("kind is required"), nil
		}
		kind, ok := content.ParseKind(kindStr)
		if !ok {
			return mcpError(fmt.Sprintf("unknown kind %q", kindStr)), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		entities, err := deps.Store.FetchCandidates(ctx, kind, splitKeywords(keywords))
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(entities) > limit {
			entities = entities[:limit]
		}

		type entityResult struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Kind  string `json:"kind"`
		}
		results := make([]entityResult, len(entities))
		for i, e := range entities {
			results[i] = entityResult{Title: e.Title, URL: e.URL, Kind: string(e.Kind)}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Store.GetRecentInteractions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent interactions: %w", err)
		}

		type interactionSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Query     string `json:"query"`
			Intent    string `json:"intent"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			query := ix.Query
			if utf8.RuneCountInString(query) > 200 {
				runes := []rune(query)
				query = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Query:     query,
				Intent:    ix.Intent,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func splitKeywords(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
