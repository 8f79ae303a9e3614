package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coder4-c/survivor-support/internal/config"
	chatdomain "github.com/coder4-c/survivor-support/internal/domain/chat"
	domain "github.com/coder4-c/survivor-support/internal/domain/evidence"
	supportdomain "github.com/coder4-c/survivor-support/internal/domain/support"
	"github.com/coder4-c/survivor-support/internal/infrastructure/auth"
	"github.com/coder4-c/survivor-support/internal/infrastructure/database"
	"github.com/coder4-c/survivor-support/internal/infrastructure/logger"
	"github.com/coder4-c/survivor-support/internal/infrastructure/observability"
	repo "github.com/coder4-c/survivor-support/internal/infrastructure/repository/evidence"
	supportrepo "github.com/coder4-c/survivor-support/internal/infrastructure/repository/support"
	"github.com/coder4-c/survivor-support/internal/infrastructure/storage"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver"
)

// @title Evidence API
// @version 1.0
// @description Survivor support evidence intake and access-control service
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer      *httpserver.HttpServer
	evidenceService *domain.Service
	cfg             *config.Config
	log             zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, evidenceService *domain.Service, cfg *config.Config, log zerolog.Logger) *Application {
	return &Application{
		httpServer:      httpServer,
		evidenceService: evidenceService,
		cfg:             cfg,
		log:             log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	if a.cfg.CleanupInterval > 0 {
		go a.runCleanupLoop(ctx)
	}
	return a.httpServer.Run(ctx)
}

// runCleanupLoop sweeps orphaned bytes of deleted records on a fixed
// interval until the context is cancelled.
func (a *Application) runCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.CleanupInterval)
	defer ticker.Stop()

	a.log.Info().Dur("interval", a.cfg.CleanupInterval).Msg("background cleanup sweep enabled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.evidenceService.SweepOrphans(ctx); err != nil {
				a.log.Error().Err(err).Msg("background sweep failed")
			}
		}
	}
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	if err := database.Migrate(cfg.DatabaseDSN, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	storageClient, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}
	defer authValidator.Shutdown()

	evidenceRepository := repo.NewRepository(db)
	evidenceService := domain.NewService(cfg, evidenceRepository, storageClient, log)
	supportRepository := supportrepo.NewRepository(db)
	supportService := supportdomain.NewService(supportRepository, log)
	chatService := chatdomain.NewService(cfg, log)

	httpServer := httpserver.New(cfg, log, evidenceService, supportService, chatService, authValidator)
	app := NewApplication(httpServer, evidenceService, cfg, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newStorage creates the storage backend selected by configuration.
func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg.LocalStoragePath, log)
	}
	return storage.NewS3Storage(ctx, cfg, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
