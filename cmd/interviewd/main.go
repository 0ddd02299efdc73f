// Interviewd runs automated technical interviews over HTTP.
//
// The daemon drives a committee of interviewer personas backed by a language
// model, grades coding submissions through an external sandbox, and keeps a
// penalty ledger that feeds the final hiring decision.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	interviewd
//
//	# Configure via file and environment
//	SERVER_PORT=9090 interviewd -config interviewd.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/config"
	"github.com/fyrsmithlabs/interviewd/internal/httpapi"
	"github.com/fyrsmithlabs/interviewd/internal/interview"
	"github.com/fyrsmithlabs/interviewd/internal/logging"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/sandbox"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  interviewd           Start the interview daemon\n")
			fmt.Fprintf(os.Stderr, "  interviewd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("interviewd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires up all collaborators and serves until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting interviewd",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()
	if err := store.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	client, err := oracle.NewClient(cfg.Oracle, logger)
	if err != nil {
		return fmt.Errorf("failed to create oracle client: %w", err)
	}

	runner, err := sandbox.NewRunner(cfg.Sandbox, logger)
	if err != nil {
		return fmt.Errorf("failed to create sandbox runner: %w", err)
	}

	svc, err := interview.NewService(client, store, runner, session.NewManager(), logger)
	if err != nil {
		return fmt.Errorf("failed to create interview service: %w", err)
	}

	srv, err := httpapi.NewServer(cfg.Server, svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
