package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-wers-reader/internal/analysis"
	"github.com/a3tai/mcp-wers-reader/internal/config"
	"github.com/a3tai/mcp-wers-reader/internal/httpapi"
	"github.com/a3tai/mcp-wers-reader/internal/logging"
	"github.com/a3tai/mcp-wers-reader/internal/mcp"
	"github.com/a3tai/mcp-wers-reader/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newService wires the report writer and analysis service from cfg
func newService(cfg *config.Config, logger *zap.Logger) (*analysis.Service, error) {
	reports, err := report.NewWriter(report.Config{Directory: cfg.ReportDirectory})
	if err != nil {
		return nil, err
	}

	return analysis.NewService(analysis.Options{
		MaxFileSize:       cfg.MaxFileSize,
		DocumentDirectory: cfg.DocumentDirectory,
		Reports:           reports,
		Logger:            logger,
	})
}

// runServerMode serves the upload form until a shutdown signal arrives
func runServerMode(ctx context.Context, cfg *config.Config, service *analysis.Service, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	server, err := httpapi.NewServer(service, logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	if err := server.ListenAndServe(ctx, cfg.Address()); err != nil {
		return err
	}

	logger.Info("server stopped successfully")
	return nil
}

// runStdioMode serves MCP until the parent process closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, service *analysis.Service, logger *zap.Logger) error {
	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Stdio: cfg.IsStdioMode()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Debug("starting with configuration", zap.String("config", cfg.String()))

	service, err := newService(cfg, logger)
	if err != nil {
		logger.Error("failed to create analysis service", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to create analysis service: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := runStdioMode
	if cfg.IsServerMode() {
		run = runServerMode
	}

	if err := run(ctx, cfg, service, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		if cfg.IsServerMode() {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP WERS Reader\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
