package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"required"`
	Embedding EmbeddingConfig `mapstructure:"embedding" validate:"required"`
	Session   SessionConfig   `mapstructure:"session" validate:"required"`
	Viewport  ViewportConfig  `mapstructure:"viewport" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the store driver and its connection string.
// For sqlite the URL is a file path or ":memory:".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains the generation service settings. An empty API key
// disables generation; graphs are then built without relation labels.
type LLMConfig struct {
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	ModelName         string        `mapstructure:"model_name" validate:"required"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" validate:"required,oneof=gemini hash"`
	ModelName  string `mapstructure:"model_name" validate:"required"`
	Dimensions int    `mapstructure:"dimensions" validate:"required,gt=0"`
}

// SessionConfig holds the tunables of the learning-session engine.
type SessionConfig struct {
	ContextSize        int           `mapstructure:"context_size" validate:"gte=0"`
	TargetEdgeLimit    int           `mapstructure:"target_edge_limit" validate:"gt=0"`
	ContextEdgeLimit   int           `mapstructure:"context_edge_limit" validate:"gt=0"`
	EdgeThreshold      float64       `mapstructure:"edge_threshold" validate:"gte=0,lte=1"`
	GravityThreshold   float64       `mapstructure:"gravity_threshold" validate:"gte=0,lte=1"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
	MemoryCacheSize    int           `mapstructure:"memory_cache_size" validate:"gt=0"`
	Workers            int           `mapstructure:"workers" validate:"gt=0"`
	QueueSize          int           `mapstructure:"queue_size" validate:"gt=0"`
	RatingAgainMinutes int           `mapstructure:"rating_again_minutes" validate:"gt=0"`
	ExamplePrefetch    int           `mapstructure:"example_prefetch" validate:"gte=0"`
}

// ViewportConfig holds the camera framing defaults.
type ViewportConfig struct {
	Padding           float64 `mapstructure:"padding" validate:"gte=0"`
	ZoomMin           float64 `mapstructure:"zoom_min" validate:"gt=0"`
	ZoomMax           float64 `mapstructure:"zoom_max" validate:"gtfield=ZoomMin"`
	SingleNodeMinZoom float64 `mapstructure:"single_node_min_zoom" validate:"gt=0"`
}
