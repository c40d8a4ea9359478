// Package server initializes and runs the account backend: it opens the
// database, applies migrations, and wires the session, registration, and
// profile services together.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/server/auth"
	"github.com/clipstream/clipstream/internal/server/config"
	"github.com/clipstream/clipstream/internal/server/repositories/repomanager"
	"github.com/clipstream/clipstream/internal/server/services"
	"github.com/clipstream/clipstream/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	Sessions      *services.SessionService
	Registrations *services.RegistrationService
	Profiles      *services.ProfileService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	hasher := auth.NewBcryptHasher(cfg.PasswordHashCost)
	repos := repomanager.NewPostgresRepositoryManager(hasher)
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens := auth.NewTokenService(auth.Options{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	})
	uploader := storage.NewS3Uploader(cfg)

	return &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		Sessions:      services.NewSessionService(db, repos, tokens, hasher, cfg, logger),
		Registrations: services.NewRegistrationService(db, repos, uploader, logger),
		Profiles:      services.NewProfileService(db, repos, logger),
	}, nil
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

// Run blocks until the context is cancelled or a termination signal arrives,
// then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	<-ctx.Done()

	app.logger.Info(ctx, "Shutting down...")
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db failed", "error", err)
	}
}
