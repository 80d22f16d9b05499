package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"procurement-engine/internal/controller"
	"procurement-engine/internal/repo"
	"procurement-engine/internal/scheduler"
	"procurement-engine/internal/service"
	"procurement-engine/pkg/http_server"
	"procurement-engine/pkg/postgres"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hashicorp/go-multierror"
	"github.com/labstack/echo"
	"github.com/labstack/gommon/log"
)

var logLevels = map[string]log.Lvl{
	"DEBUG": log.DEBUG,
	"INFO":  log.INFO,
	"WARN":  log.WARN,
	"ERROR": log.ERROR,
	"OFF":   log.OFF,
}

func newLogger(prefix, level string) *log.Logger {
	logger := log.New(prefix)
	logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)

	lvl, ok := logLevels[strings.ToUpper(level)]
	if !ok {
		lvl = log.INFO
	}
	logger.SetLevel(lvl)

	return logger
}

func migrateTables(pg *postgres.Postgres, sourceUrl string, databaseName string, logger *log.Logger) error {
	driver, err := pgmigrate.WithInstance(pg.Database, &pgmigrate.Config{DatabaseName: databaseName})
	if err != nil {
		return err
	}

	migrations, err := migrate.NewWithDatabaseInstance(sourceUrl, databaseName, driver)
	if err != nil {
		return err
	}

	if err := migrations.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no change made by migration scripts")
			return nil
		}

		return err
	}

	return nil
}

// openStorage returns the repositories for the configured driver and a func
// releasing whatever they hold.
func openStorage(cfg *Config, logger *log.Logger) (*repo.Repositories, func() error, error) {
	if cfg.StorageDriver == StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return repo.NewMemoryRepositories(), func() error { return nil }, nil
	}

	logger.Info("Connecting database...")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}

	logger.Info("Running migrations...")
	if err = migrateTables(postgresDB, cfg.MigrationsPath, cfg.PostgresDatabase, logger); err != nil {
		return nil, nil, multierror.Append(fmt.Errorf("migrate: %w", err), postgresDB.Close())
	}

	return repo.NewRepositories(postgresDB), postgresDB.Close, nil
}

func Run(cfg *Config) {
	logger := newLogger("procurement", cfg.LogLevel)

	repositories, closeStorage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	services := service.NewServices(repositories, time.Now)

	deadlines, err := scheduler.NewDeadlineScheduler(services.Rfq, cfg.DeadlineSweepSpec, cfg.SweepTimeout, newLogger("scheduler", cfg.LogLevel))
	if err != nil {
		logger.Fatal(err)
	}
	deadlines.Start()

	handler := echo.New()
	handler.HideBanner = true
	handler.Logger = newLogger("http", cfg.LogLevel)

	logger.Info("Setup routes...")
	controller.SetupRoutesHandlers(handler, services)

	logger.Infof("Starting server on %s...", cfg.ServerAddress)
	httpServer := http_server.New(handler, cfg.ServerAddress,
		http_server.ReadTimeout(cfg.ReadTimeout),
		http_server.ShutdownTimeout(cfg.ShutdownTimeout),
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		logger.Info("Got signal: " + s.String())
	case err = <-httpServer.Notify():
		logger.Errorf("Notify error: %v", err)
	}

	logger.Info("Shutting down...")
	var result *multierror.Error
	if err = httpServer.Shutdown(); err != nil {
		result = multierror.Append(result, fmt.Errorf("http server: %w", err))
	}
	deadlines.Stop()
	if err = closeStorage(); err != nil {
		result = multierror.Append(result, fmt.Errorf("storage: %w", err))
	}

	if err = result.ErrorOrNil(); err != nil {
		logger.Fatalf("Shutdown error: %v", err)
	}
	logger.Info("Successful shutdown")
}
