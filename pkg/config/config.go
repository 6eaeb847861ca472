package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces automatic environment overrides, e.g. HYBRIDRAG_SERVER_PORT.
const EnvPrefix = "HYBRIDRAG"

var validate = validator.New()

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Generation configuration
	Generation GenerationConfig `mapstructure:"generation"`

	// Retrieval configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// History configuration
	History HistoryConfig `mapstructure:"history"`

	// Ingest configuration
	Ingest IngestConfig `mapstructure:"ingest"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio" validate:"gte=0,lte=1"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ParquetPath    string `mapstructure:"parquet_path"`
	TokenUsagePath string `mapstructure:"token_usage_path"`
	BatchSize      int    `mapstructure:"batch_size" validate:"gte=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json color"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"` // gin mode
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=neo4j ladybug"`
	URI      string `mapstructure:"uri" validate:"required"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider" validate:"oneof=embedeverything openai ollama"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions" validate:"min=1"`
	BatchSize  int    `mapstructure:"batch_size" validate:"gte=0"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=ollama openai rustbert"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=1"`
	TopK        int           `mapstructure:"top_k" validate:"gte=0"`
	TopP        float32       `mapstructure:"top_p" validate:"gte=0,lte=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// RetrievalConfig holds per-channel limits of the hybrid search pipeline.
type RetrievalConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SemanticTopK     int           `mapstructure:"semantic_top_k" validate:"min=1"`
	KeywordTopK      int           `mapstructure:"keyword_top_k" validate:"min=1"`
	RelatedDepth     int           `mapstructure:"related_depth" validate:"min=1,max=5"`
	RelatedLimit     int           `mapstructure:"related_limit" validate:"min=1,max=5"`
	TopK             int           `mapstructure:"top_k" validate:"min=1"`
	MaxContextLength int           `mapstructure:"max_context_length" validate:"min=1"`
}

// SearchConfig holds fusion settings.
type SearchConfig struct {
	Normalization string        `mapstructure:"normalization" validate:"oneof=none minmax"`
	Weights       WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig holds the per-channel fusion weights.
type WeightsConfig struct {
	Semantic float64 `mapstructure:"semantic" validate:"gte=0"`
	Keyword  float64 `mapstructure:"keyword" validate:"gte=0"`
	Related  float64 `mapstructure:"related" validate:"gte=0"`
}

// HistoryConfig holds session history settings.
type HistoryConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory badger"`
	Path       string `mapstructure:"path" validate:"required_if=Backend badger"`
	MaxEntries int    `mapstructure:"max_entries" validate:"min=1"`
}

// IngestConfig holds knowledge base ingestion settings.
type IngestConfig struct {
	DataDir     string   `mapstructure:"data_dir"`
	Manifest    string   `mapstructure:"manifest"`
	Tagger      string   `mapstructure:"tagger" validate:"oneof=keyword gliner"`
	GlinerModel string   `mapstructure:"gliner_model"`
	Threshold   float32  `mapstructure:"threshold" validate:"gte=0,lte=1"`
	Workers     int      `mapstructure:"workers" validate:"min=1"`
	Keywords    []string `mapstructure:"keywords"`
}

// Load loads configuration from .env, the config file already registered with
// viper, and environment variables, then validates the result.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with the conventional variable names
	overrideWithEnv(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct constraints on a loaded configuration.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "color")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.mode", "release")

	// Database defaults
	viper.SetDefault("database.driver", "neo4j")
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")

	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimensions", 384)
	viper.SetDefault("embedding.batch_size", 32)
	viper.SetDefault("embedding.base_url", "")
	viper.SetDefault("embedding.api_key", "")

	viper.SetDefault("generation.provider", "ollama")
	viper.SetDefault("generation.base_url", "")
	viper.SetDefault("generation.api_key", "")
	viper.SetDefault("generation.model", "llama3.1:8b")
	viper.SetDefault("generation.temperature", 0.3)
	viper.SetDefault("generation.max_tokens", 1000)
	viper.SetDefault("generation.top_k", 40)
	viper.SetDefault("generation.top_p", 0.9)
	viper.SetDefault("generation.timeout", 120*time.Second)
	viper.SetDefault("generation.max_retries", 0)

	viper.SetDefault("retrieval.timeout", 30*time.Second)
	viper.SetDefault("retrieval.semantic_top_k", 20)
	viper.SetDefault("retrieval.keyword_top_k", 5)
	viper.SetDefault("retrieval.related_depth", 1)
	viper.SetDefault("retrieval.related_limit", 5)
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.max_context_length", 4000)

	viper.SetDefault("search.normalization", "none")
	viper.SetDefault("search.weights.semantic", 0.5)
	viper.SetDefault("search.weights.keyword", 0.4)
	viper.SetDefault("search.weights.related", 0.1)

	viper.SetDefault("history.backend", "memory")
	viper.SetDefault("history.max_entries", 100)

	viper.SetDefault("ingest.data_dir", "data")
	viper.SetDefault("ingest.manifest", "file_paths.json")
	viper.SetDefault("ingest.tagger", "keyword")
	viper.SetDefault("ingest.gliner_model", "urchade/gliner_small-v2.1")
	viper.SetDefault("ingest.threshold", 0.5)
	viper.SetDefault("ingest.workers", 4)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.batch_size", 100)

	viper.SetDefault("alert.smtp_port", 587)

	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", filepath.Join(home, ".hybridrag", "telemetry"))
		viper.SetDefault("telemetry.token_usage_path", filepath.Join(home, ".hybridrag", "tokens"))
		viper.SetDefault("history.path", filepath.Join(home, ".hybridrag", "history"))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	// Generation service
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		config.Generation.BaseURL = url
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.Generation.Model = model
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Generation.APIKey == "" {
			config.Generation.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			config.Server.Port = p
		}
	}
}
