package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/codeindex-mcp/internal/app"
	"github.com/dshills/codeindex-mcp/internal/config"
	"github.com/dshills/codeindex-mcp/internal/logger"
	"github.com/dshills/codeindex-mcp/internal/mcp"
	"github.com/dshills/codeindex-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and build information")
	configPath := flag.String("config", "", "TOML configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("codeindex MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		fmt.Printf("Vector Extension: %v\n", storage.VectorExtensionAvailable)
		os.Exit(0)
	}

	if err := run(*configPath, *verbose); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetVerbose(verbose || cfg.Verbose)

	// stdout is reserved for the MCP protocol
	logger.Info("codeindex MCP server %s starting", version)
	logger.Info("store: %s (%s), build mode: %s", cfg.Store.Backend, cfg.Store.Collection, storage.BuildMode)
	if cfg.Source != "" {
		logger.Info("config: %s", cfg.Source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}()

	server := mcp.NewServer(a, version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("MCP server ready, listening on stdio...")
		return server.Serve(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
