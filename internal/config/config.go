package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DefaultDatabaseURL is the SQLite file used when DATABASE_URL is unset.
const DefaultDatabaseURL = "data/carbon_registry.db"

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	DatabaseURL    string // SQLite path, ":memory:", or a postgres:// URL
	RedisURL       string // optional; empty disables request counters
	HealthAdminKey string
	LogLevel       string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", DefaultDatabaseURL)
	v.SetDefault("LOG_LEVEL", "info")

	return &Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		DatabaseURL:    strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:       strings.TrimSpace(v.GetString("REDIS_URL")),
		HealthAdminKey: v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SetupLogging configures the global zerolog logger: JSON in production, console
// output otherwise. An unknown level falls back to info.
func SetupLogging(cfg *Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
