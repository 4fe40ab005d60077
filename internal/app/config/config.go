package config

import (
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds the full runtime configuration. Values load in three layers:
// built-in defaults, an optional YAML file, then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Store     StoreConfig     `yaml:"store"`
	Economy   EconomyConfig   `yaml:"economy"`
	Jobs      JobsConfig      `yaml:"jobs"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"ECONOMY_SERVER_HOST"`
	Port int    `yaml:"port" env:"ECONOMY_SERVER_PORT"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"ECONOMY_LOG_LEVEL"`
	Format string `yaml:"format" env:"ECONOMY_LOG_FORMAT"`
}

type StoreConfig struct {
	// Backend selects the persistence layer: file, memory or postgres.
	Backend string `yaml:"backend" env:"ECONOMY_STORE_BACKEND"`
	DataDir string `yaml:"data_dir" env:"ECONOMY_STORE_DATA_DIR"`
	DSN     string `yaml:"dsn" env:"ECONOMY_STORE_DSN"`
}

type EconomyConfig struct {
	// RepurchasePolicy is charge or reject.
	RepurchasePolicy string `yaml:"repurchase_policy" env:"ECONOMY_REPURCHASE_POLICY"`
	// LockPolicy is serialize or none.
	LockPolicy string `yaml:"lock_policy" env:"ECONOMY_LOCK_POLICY"`
}

type JobsConfig struct {
	// WeeklyResetSchedule is a cron expression; empty disables the job.
	WeeklyResetSchedule string `yaml:"weekly_reset_schedule" env:"ECONOMY_WEEKLY_RESET_SCHEDULE"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"ECONOMY_RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" env:"ECONOMY_RATE_LIMIT_BURST"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8085},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Backend: "file", DataDir: "data"},
		Economy: EconomyConfig{
			RepurchasePolicy: "charge",
			LockPolicy:       "serialize",
		},
		Jobs:      JobsConfig{WeeklyResetSchedule: "@weekly"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 0, Burst: 0},
	}
}

// Load assembles the configuration. The YAML file path comes from the
// ECONOMY_CONFIG environment variable, falling back to ./economy.yaml when
// that file exists.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("ECONOMY_CONFIG")
	if path == "" {
		if _, err := os.Stat("economy.yaml"); err == nil {
			path = "economy.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Env tags carry no defaults, so unset variables leave the file and
	// built-in values untouched.
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "file", "memory", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("postgres backend requires a DSN")
	}
	switch c.Economy.RepurchasePolicy {
	case "charge", "reject":
	default:
		return fmt.Errorf("unknown repurchase policy %q", c.Economy.RepurchasePolicy)
	}
	switch c.Economy.LockPolicy {
	case "serialize", "none":
	default:
		return fmt.Errorf("unknown lock policy %q", c.Economy.LockPolicy)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Addr returns the host:port pair the HTTP server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
