package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LEXIS_SERVER_PORT.
const EnvPrefix = "LEXIS"

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "lexis.db")

	v.SetDefault("auth.token_lifetime_minutes", 60*24)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base_delay", 2*time.Second)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("embedding.provider", "hash")
	v.SetDefault("embedding.model_name", "text-embedding-004")
	v.SetDefault("embedding.dimensions", 256)

	v.SetDefault("session.context_size", 15)
	v.SetDefault("session.target_edge_limit", 4)
	v.SetDefault("session.context_edge_limit", 2)
	v.SetDefault("session.edge_threshold", 0.3)
	v.SetDefault("session.gravity_threshold", 0.5)
	v.SetDefault("session.cache_ttl", 30*24*time.Hour)
	v.SetDefault("session.memory_cache_size", 1024)
	v.SetDefault("session.workers", 2)
	v.SetDefault("session.queue_size", 16)
	v.SetDefault("session.example_prefetch", 4)
	v.SetDefault("session.rating_again_minutes", 10)

	v.SetDefault("viewport.padding", 40.0)
	v.SetDefault("viewport.zoom_min", 0.2)
	v.SetDefault("viewport.zoom_max", 4.0)
	v.SetDefault("viewport.single_node_min_zoom", 1.2)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path searches for
// config.yaml in the working directory; a missing file is not an error then.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about. Secrets
	// have no defaults, so bind them explicitly.
	for _, key := range []string{"auth.jwt_secret", "llm.gemini_api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
