package mcpadapter

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/book-agent/internal/agent"
)

func NewServer(version string, tool ToolCaller, asker Asker) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "book-agent",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        agent.RetrieveToolName,
		Description: "Search the book and return the most relevant passages with chapter, section and relevance score",
	}, NewRetrieveHandler(tool))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_book",
		Description: "Answer a question about the book with citations. Set use_agent for multi-step questions.",
	}, NewAskHandler(asker))

	return server
}
