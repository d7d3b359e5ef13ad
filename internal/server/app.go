// Package server wires the cloudstorage components together and runs them
// until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/access"
	"github.com/dmitrijs2005/cloudstorage/internal/server/auth"
	"github.com/dmitrijs2005/cloudstorage/internal/server/blobs"
	"github.com/dmitrijs2005/cloudstorage/internal/server/config"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudstorage/internal/server/revocation"
	"github.com/dmitrijs2005/cloudstorage/internal/server/services"
	"github.com/dmitrijs2005/cloudstorage/internal/server/storage"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/cloudstorage/internal/server/grpc"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const generatedSecretBytes = 32

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *revocation.Registry
	server   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	app, err := newApp(ctx, c, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, db *sql.DB, logger logging.Logger) (*App, error) {
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	secret := []byte(c.SecretKey)
	if len(secret) == 0 {
		logger.Warn(ctx, "No secret key configured, tokens will not survive a restart")
		secret = common.GenerateRandByteArray(generatedSecretBytes)
	}
	return assemble(ctx, c, db, rm, secret, logger)
}

func assemble(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, secret []byte, logger logging.Logger) (*App, error) {
	tokens, err := auth.NewTokenService(secret, c.TokenTTL)
	if err != nil {
		return nil, err
	}
	registry := revocation.NewRegistry(revocation.TokenExpiry(tokens), logger)
	gate := access.NewGate(tokens, registry, rm.Users(db), logger)

	backend, err := newBackend(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob backend error: %w", err)
	}

	engine, err := storage.NewEngine(ctx, db, rm, backend, storage.Options{MaxUploadBytes: c.MaxUploadBytes}, logger)
	if err != nil {
		return nil, fmt.Errorf("storage engine error: %w", err)
	}

	us := services.NewUserService(db, rm, auth.NewBcryptHasher(), tokens, registry, logger)
	fs := services.NewStorageService(gate, engine, logger)
	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, fs, gate, engine.MaxUploadBytes())

	return &App{config: c, logger: logger, db: db, registry: registry, server: srv}, nil
}

func newBackend(ctx context.Context, c *config.Config) (blobs.Backend, error) {
	switch c.StorageBackend {
	case config.BackendS3:
		return blobs.NewS3Backend(ctx, blobs.S3Config{
			Endpoint:  c.S3BaseEndpoint,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3RootUser,
			SecretKey: c.S3RootPassword,
		})
	case config.BackendFS:
		return blobs.NewFSBackend(afero.NewOsFs(), c.UploadDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is done or a signal arrives, then closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx)
	})
	g.Go(func() error {
		return app.registry.Run(ctx, app.config.RevocationPruneInterval)
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
