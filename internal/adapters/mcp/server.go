package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vmaslov/askdocs/internal/core/ports"
)

// NewServer exposes the question-answer pipeline as an MCP "ask" tool so
// agent hosts can query the corpus.
func NewServer(answerer ports.QuestionAnswerer) *server.MCPServer {
	tool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question from the indexed document corpus, with source chunks"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of context chunks to retrieve"),
		))

	srv := server.NewMCPServer("askdocs", "1.0.0", server.WithToolCapabilities(false))
	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := request.GetInt("limit", 0)

		answer, err := answerer.Answer(ctx, question, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, err := json.Marshal(answer)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal answer: %v", err)), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	})

	return srv
}
