// ABOUTME: Shared wiring for CLI, MCP and HTTP entry points
// ABOUTME: Builds the store, health engine and bulk processor from config
package cli

import (
	"database/sql"
	"io"
	"os"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/health"
	"go.uber.org/zap"
)

// App holds the services every command works against.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *db.Store
	Engine    *health.Engine
	Processor *bulk.Processor

	// Out receives user-facing output.
	Out io.Writer
}

func NewApp(database *sql.DB, cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := db.NewStore(database)
	engine := health.NewEngine(store, cfg.Health(),
		health.WithLocation(cfg.Location()),
		health.WithLogger(logger.Named("health")),
	)
	processor := bulk.NewProcessor(store, engine, cfg.Bulk(),
		bulk.WithLogger(logger.Named("bulk")),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Engine:    engine,
		Processor: processor,
		Out:       os.Stdout,
	}
}
