package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config del servicio. Orden de precedencia: defaults < YAML < variables de entorno.
type Config struct {
	App      string         `yaml:"app" env:"APP_NAME"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig: driver memory (default), sqlite o postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"DB_DSN"`
}

type AuthConfig struct {
	// DevAuth desactiva JWT y acepta X-Debug-User-ID / X-Debug-User-Role.
	DevAuth   bool          `yaml:"dev_auth" env:"DEV_AUTH"`
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`

	LoginRatePerSec float64 `yaml:"login_rate_per_sec" env:"LOGIN_RATE_PER_SEC"`
	LoginBurst      int     `yaml:"login_burst" env:"LOGIN_BURST"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type SeedConfig struct {
	DemoData bool `yaml:"demo_data" env:"SEED_DEMO_DATA"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const minSecretLen = 16

func Default() Config {
	return Config{
		App: "dog-walk-service",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: DriverMemory},
		Auth: AuthConfig{
			TokenTTL:        24 * time.Hour,
			LoginRatePerSec: 1,
			LoginBurst:      5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load arma la config: defaults, luego el YAML en path (si no está vacío),
// luego el entorno. Devuelve error si el resultado no es válido.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be memory, sqlite or postgres, got %q", c.Database.Driver))
	}

	if !c.Auth.DevAuth && len(strings.TrimSpace(c.Auth.JWTSecret)) < minSecretLen {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters (or enable dev_auth)", minSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.LoginRatePerSec < 0 {
		errs = append(errs, errors.New("auth.login_rate_per_sec must be >= 0"))
	}
	if c.Auth.LoginRatePerSec > 0 && c.Auth.LoginBurst < 1 {
		errs = append(errs, errors.New("auth.login_burst must be >= 1"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Addr devuelve la dirección de escucha (":8080").
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
