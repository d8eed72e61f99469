// Package config manages environment variables.
//
// It reads variables (optionally from a `.env` file), loads them into
// structured Go types and validates that required values are present so
// the service fails fast on bad or missing configuration.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env before koanf reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix is the prefix every configuration variable carries.
//
// Keys are lowercased after the prefix is removed and nested with ".",
// e.g. CARSALES_DATABASE.HOST -> database.host -> Config.Database.Host.
const EnvPrefix = "CARSALES_"

// Config is the root configuration object for the service.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected by LoadConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Notifications NotificationsConfig  `koanf:"notifications"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds. WriteRateLimit is the sustained
// number of write requests per second allowed per client IP, with bursts
// up to WriteRateBurst; zero disables write rate limiting.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	WriteRateLimit     float64  `koanf:"write_rate_limit" validate:"gte=0"`
	WriteRateBurst     int      `koanf:"write_rate_burst" validate:"gte=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
//
// ConnMaxLifetime and ConnMaxIdleTime are seconds. AutoMigrate applies the
// embedded schema on startup; when false the schema is expected to exist.
// SlowQueryMS makes list queries slower than it log at warn level; zero
// disables the warning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
	SlowQueryMS     int    `koanf:"slow_query_ms" validate:"gte=0"`
}

// RedisConfig contains Redis connection details ("host:port").
// An empty Address disables background jobs and the redis health check.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Enabled reports whether a Redis address has been configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// AuthConfig lists the API keys accepted in the X-API-Key header for
// write endpoints. Comma separated in env: CARSALES_AUTH.API_KEYS=k1,k2
type AuthConfig struct {
	APIKeys []string `koanf:"api_keys" validate:"required,min=1,dive,required"`
}

// IntegrationConfig stores credentials for third-party providers.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// NotificationsConfig controls the sale change e-mails sent by the job worker.
type NotificationsConfig struct {
	Enabled bool   `koanf:"enabled"`
	EmailTo string `koanf:"email_to" validate:"required_if=Enabled true,omitempty,email"`
	From    string `koanf:"from"`
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it and applies observability defaults.
//
// Errors while loading are fatal: the process cannot do anything useful
// without a valid configuration.
func LoadConfig() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal main config")
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config so
	// logs and traces are labelled consistently.
	mainConfig.Observability.ServiceName = "carsales"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}
