package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/book-agent/internal/api"
	"github.com/povarna/generative-ai-agents/book-agent/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/book-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/book-agent/internal/setup/logger"
)

func main() {
	// Load env
	_ = godotenv.Load()

	cfg := setup.LoadConfig()
	log := logger.New(cfg.LogLevel)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, cfg, &log)
	if err != nil {
		log.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}
	defer deps.Close()

	server := mcpadapter.NewServer(api.Version, deps.RetrieveTool, deps.Chat)

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF is expected when the client closes stdin
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			log.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		log.Error().Err(err).Msg("Failed to run mcp server")
		deps.Close()
		os.Exit(1)
	}
}
