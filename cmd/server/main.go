package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iudanet/gopherblog/internal/crypto"
	"github.com/iudanet/gopherblog/internal/server"
	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/internal/server/config"
	"github.com/iudanet/gopherblog/internal/server/jwt"
	"github.com/iudanet/gopherblog/internal/server/posts"
	"github.com/iudanet/gopherblog/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := pflag.Bool("version", false, "Show version information")
	envFile := pflag.String("env-file", "", "Path to .env file (default: ./.env if present)")
	pflag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	logger, err := server.NewLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting gopherblog server",
		slog.String("version", Version),
		slog.String("config", cfg.String()))

	db, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	codec, err := jwt.NewCodec(jwt.Config{
		Key:      []byte(cfg.JWT.Key),
		TTL:      cfg.JWT.TTL,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(logger, db, crypto.NewBcryptHasher(cfg.BcryptCost), codec)

	created, err := authSvc.EnsureAdmin(ctx, cfg.Seed.Username, cfg.Seed.Email, cfg.Seed.Password)
	if err != nil {
		return err
	}
	if !created && cfg.Seed.Password == "" {
		logger.Debug("admin seeding disabled")
	}

	srv := server.New(logger, cfg, server.Deps{
		Auth:   authSvc,
		Posts:  posts.NewService(logger, db, images),
		Images: images,
		DB:     db,
	}, Version)

	return srv.Run(ctx)
}

func newImageStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			AccessKeyID:    cfg.S3.AccessKeyID,
			SecretKey:      cfg.S3.SecretKey,
			Endpoint:       cfg.S3.Endpoint,
			Prefix:         cfg.S3.Prefix,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 image store: %w", err)
		}
		return store, nil
	default:
		store, err := blob.NewDiskStore(cfg.Storage.UploadsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk image store: %w", err)
		}
		return store, nil
	}
}

func printVersion() {
	fmt.Printf("Gopherblog Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
