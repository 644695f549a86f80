// Package bootstrap initialises the logger and the optional audit database.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	coredatabase "github.com/m3rciful/buttonbot/core/database"
	"github.com/m3rciful/buttonbot/core/logger"
)

// Options control the bootstrap pipeline. Nil funcs select the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when no database is configured.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, when a database is configured, applies
// migrations and opens the pool.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	dbCfg := opts.Config.Database
	if !dbCfg.Enabled() {
		return &Result{}, nil
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, dbCfg); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return &Result{DB: db}, nil
}
