package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Geocoder GeocoderConfig
	Cache    CacheConfig
	Store    StoreConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeocoderConfig holds geocoding provider configuration
type GeocoderConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`     // per address resolution
	Concurrency   int           `mapstructure:"concurrency"` // parallel resolutions per planning pass
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// CacheConfig selects where resolved locations are persisted
type CacheConfig struct {
	Type     string `mapstructure:"type"` // "memory", "redis" or "postgres"
	RedisURL string `mapstructure:"redis_url"`
}

// StoreConfig selects the order and catalog store
type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // "memory" or "postgres"
	DatabaseURL string `mapstructure:"database_url"`
	FixturePath string `mapstructure:"fixture_path"`
}

// LoggingConfig controls structured logging settings
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"` // text|json
	IncludeCaller bool   `mapstructure:"include_caller"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/foodcart/")

	// FOODCART_GEOCODER_API_KEY -> geocoder.api_key
	v.SetEnvPrefix("FOODCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Geocoder defaults
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "https://geocode-maps.yandex.ru/1.x")
	v.SetDefault("geocoder.timeout", "10s")
	v.SetDefault("geocoder.concurrency", 8)
	v.SetDefault("geocoder.rate_per_second", 5)
	v.SetDefault("geocoder.burst", 10)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.fixture_path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.include_caller", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Geocoder.APIKey == "" {
		return fmt.Errorf("geocoder API key is required (set FOODCART_GEOCODER_API_KEY)")
	}

	if config.Geocoder.Timeout <= 0 {
		return fmt.Errorf("geocoder timeout must be positive, got: %s", config.Geocoder.Timeout)
	}

	if config.Geocoder.Concurrency < 1 {
		return fmt.Errorf("geocoder concurrency must be at least 1, got: %d", config.Geocoder.Concurrency)
	}

	switch config.Cache.Type {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'postgres', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Store.Driver != "memory" && config.Store.Driver != "postgres" {
		return fmt.Errorf("store driver must be 'memory' or 'postgres', got: %s", config.Store.Driver)
	}

	needsDatabase := config.Store.Driver == "postgres" || config.Cache.Type == "postgres"
	if needsDatabase && config.Store.DatabaseURL == "" {
		return fmt.Errorf("database URL is required when postgres is used (set FOODCART_STORE_DATABASE_URL)")
	}

	return nil
}

// loadEnvFile exports ./.env without overriding the environment; the file is optional
func loadEnvFile() error {
	err := gotenv.Load(".env")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
