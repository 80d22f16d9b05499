package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	ServerAddress     string        `env:"SERVER_ADDRESS" envDefault:":8080"`
	PostgresConn      string        `env:"POSTGRES_CONN"`
	PostgresDatabase  string        `env:"POSTGRES_DATABASE" envDefault:"procurement"`
	StorageDriver     string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	MigrationsPath    string        `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	DeadlineSweepSpec string        `env:"DEADLINE_SWEEP_SPEC" envDefault:"@every 1m"`
	SweepTimeout      time.Duration `env:"DEADLINE_SWEEP_TIMEOUT" envDefault:"30s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"INFO"`
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.PostgresConn == "" {
			return nil, errors.New("POSTGRES_CONN is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return &cfg, nil
}
