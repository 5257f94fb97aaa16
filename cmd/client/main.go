package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/iudanet/gopherblog/internal/client/api"
	"github.com/iudanet/gopherblog/internal/client/auth"
	"github.com/iudanet/gopherblog/internal/client/cli"
	"github.com/iudanet/gopherblog/internal/client/iocli"
	"github.com/iudanet/gopherblog/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := pflag.Bool("version", false, "Show version information")
	serverURL := pflag.String("server", envOr("GOPHERBLOG_SERVER", "http://localhost:5073/api"), "Server API URL")
	dbPath := pflag.String("db", envOr("GOPHERBLOG_DB", "gopherblog-client.db"), "Path to local session database")
	verbose := pflag.Bool("verbose", false, "Enable debug logging")
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := pflag.Args()
	if len(args) == 0 {
		cli.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *serverURL, *dbPath, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, serverURL, dbPath, command string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := boltdb.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	apiClient := api.NewClient(serverURL)
	session := auth.NewService(logger, apiClient, store, apiClient.BaseURL())

	if err := cli.New(iocli.NewStdio(), session).Run(ctx, command, args); err != nil {
		if errors.Is(err, cli.ErrUnknownCommand) {
			cli.PrintUsage(os.Stderr)
		}
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("Gopherblog Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
