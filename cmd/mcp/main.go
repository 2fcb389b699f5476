package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/vmaslov/askdocs/internal/adapters/mcp"
	"github.com/vmaslov/askdocs/internal/bootstrap"
	"github.com/vmaslov/askdocs/internal/config"
	"github.com/vmaslov/askdocs/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("mcp", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAPI(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.Answerer)
	sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", cfg.MCPAddr)))

	go func() {
		<-ctx.Done()
		_ = sse.Shutdown(context.Background())
	}()

	logger.Info("mcp_listening", "addr", cfg.MCPAddr)
	if err := sse.Start(cfg.MCPAddr); err != nil {
		logger.Error("mcp_server_error", "error", err)
	}
}
