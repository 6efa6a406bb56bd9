package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/params"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/api"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/auth"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/crypto"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/exchange"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/order"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/tools"
	"github.com/ctxprotocol/hyperliquid-mcp/pkg/util"
)

const serverVersion = "0.3.0"

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	// Optional file logging: LOG_FILE tees output to a file
	var logger *zap.Logger
	var err error
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Exchange connectivity ----
	client := exchange.NewClient(cfg.Exchange.APIURL, cfg.Exchange.SubmitTimeout, logger)

	var marks exchange.MarkSource
	if cfg.Exchange.WSURL != "" {
		feed := exchange.NewMidsFeed(cfg.Exchange.WSURL, logger)
		go feed.Run(ctx)
		marks = feed
	}

	// ---- Order pipeline ----
	source := crypto.AgentSourceMainnet
	if cfg.Exchange.Testnet {
		source = crypto.AgentSourceTestnet
	}
	agent := crypto.NewAgentSigner(crypto.DefaultExchangeDomain())
	builder := order.NewBuilder(client, marks, order.NewNonceSource(util.RealClock{}), agent, source, cfg.Risk.NotionalWarnUSD, logger)
	submitter := order.NewSubmitter(client, logger)

	// ---- Auth ----
	keys := auth.NewKeyCache(cfg.Auth.JWKSURL, cfg.Auth.KeyTTL, cfg.Auth.FetchTimeout, util.RealClock{}, logger)
	verifier := auth.NewVerifier(keys, cfg.Auth.Issuer, cfg.Auth.Audience, logger)

	// ---- MCP server + tool catalog ----
	mcp := mcpserver.NewMCPServer("hyperliquid-mcp", serverVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	tools.NewHandlers(client, marks, builder, submitter, logger).Register(mcp)

	// ---- HTTP surface ----
	srv := api.NewServer(mcp, verifier, cfg.Server.AllowedOrigins, logger)

	sugar.Infow("server_starting",
		"addr", cfg.Server.Addr,
		"exchange", cfg.Exchange.APIURL,
		"testnet", cfg.Exchange.Testnet,
		"issuer", cfg.Auth.Issuer)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.Server.Addr) }()

	select {
	case <-ctx.Done():
		sugar.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("shutdown", "err", err)
		}
	case err := <-errc:
		sugar.Fatalw("server_failed", "err", err)
	}
}
