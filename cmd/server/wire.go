//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coder4-c/survivor-support/internal/config"
	chatdomain "github.com/coder4-c/survivor-support/internal/domain/chat"
	domain "github.com/coder4-c/survivor-support/internal/domain/evidence"
	supportdomain "github.com/coder4-c/survivor-support/internal/domain/support"
	"github.com/coder4-c/survivor-support/internal/infrastructure/auth"
	"github.com/coder4-c/survivor-support/internal/infrastructure/database"
	"github.com/coder4-c/survivor-support/internal/infrastructure/logger"
	repo "github.com/coder4-c/survivor-support/internal/infrastructure/repository/evidence"
	supportrepo "github.com/coder4-c/survivor-support/internal/infrastructure/repository/support"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver"
)

var evidenceSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Repository), new(*repo.Repository)),
	newStorage,
	domain.NewService,
)

var supportSet = wire.NewSet(
	supportrepo.NewRepository,
	wire.Bind(new(supportdomain.Repository), new(*supportrepo.Repository)),
	supportdomain.NewService,
)

// BuildApplication assembles the evidence API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		newDatabaseConfig,
		newGormDB,
		evidenceSet,
		supportSet,
		chatdomain.NewService,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(cfg database.Config, rawCfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	if err := database.Migrate(rawCfg.DatabaseDSN, log); err != nil {
		return nil, err
	}
	return database.Connect(cfg)
}
