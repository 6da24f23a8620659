package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TRIBUNAL"

const (
	LedgerMemory   = "memory"
	LedgerBadger   = "badger"
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
)

// Config is centralized process configuration.
// Precedence: defaults, then the YAML file, then .env, then the environment.
type Config struct {
	ServiceName string `yaml:"serviceName" split_words:"true"`
	HTTPPort    string `yaml:"httpPort"    envconfig:"HTTP_PORT"`

	// Ledger selects the storage backend: memory, badger, postgres or sqlite.
	Ledger      string `yaml:"ledger"`
	PostgresDSN string `yaml:"postgresDsn" envconfig:"POSTGRES_DSN"`
	SQLitePath  string `yaml:"sqlitePath"  envconfig:"SQLITE_PATH"`
	BadgerDir   string `yaml:"badgerDir"   split_words:"true"`

	// TrustCallerHeader accepts X-Caller-Address without a signature.
	// Development only.
	TrustCallerHeader bool          `yaml:"trustCallerHeader" split_words:"true"`
	SignatureMaxSkew  time.Duration `yaml:"signatureMaxSkew"  split_words:"true"`

	// EmbeddedWorkers runs the outbox relay and deadline sweeper inside the
	// API process, which is what feeds its event stream.
	EmbeddedWorkers    bool          `yaml:"embeddedWorkers"    split_words:"true"`
	WorkerPollInterval time.Duration `yaml:"workerPollInterval" split_words:"true"`
	WorkerBatchSize    int           `yaml:"workerBatchSize"    split_words:"true"`

	LogLevel string `yaml:"logLevel" split_words:"true"`
	LogFile  string `yaml:"logFile"  split_words:"true"`
	Debug    bool   `yaml:"debug"`

	MetricsEnabled bool `yaml:"metricsEnabled" split_words:"true"`
	SwaggerEnabled bool `yaml:"swaggerEnabled" split_words:"true"`
}

func Defaults() Config {
	return Config{
		ServiceName:        "tribunal",
		HTTPPort:           "8080",
		Ledger:             LedgerMemory,
		SQLitePath:         "tribunal.db",
		BadgerDir:          "data/ledger",
		SignatureMaxSkew:   5 * time.Minute,
		EmbeddedWorkers:    true,
		WorkerPollInterval: 2 * time.Second,
		WorkerBatchSize:    100,
		LogLevel:           "info",
		MetricsEnabled:     true,
		SwaggerEnabled:     true,
	}
}

// Load builds the process configuration. configFile may be empty; a missing
// .env file is not an error.
func Load(configFile string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(configFile) != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Ledger {
	case LedgerMemory, LedgerBadger, LedgerSQLite:
	case LedgerPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgres ledger requires TRIBUNAL_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger)
	}
	if c.WorkerPollInterval <= 0 {
		return errors.New("worker poll interval must be positive")
	}
	if c.WorkerBatchSize <= 0 {
		return errors.New("worker batch size must be positive")
	}
	if c.SignatureMaxSkew <= 0 {
		return errors.New("signature max skew must be positive")
	}
	return nil
}
