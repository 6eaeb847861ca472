package nlp

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/soundprediction/hybridrag/pkg/alert"
	"github.com/soundprediction/hybridrag/pkg/config"
)

// Provider names accepted by New.
const (
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderRustBert = "rustbert"
)

// New builds the configured generation client and applies the optional
// retry, circuit breaker and token usage wrappers.
func New(cfg *config.Config, logger *slog.Logger) (Client, error) {
	gen := cfg.Generation
	clientCfg := DefaultConfig(gen.Model)
	clientCfg.BaseURL = gen.BaseURL
	clientCfg.Temperature = ptr(gen.Temperature)
	clientCfg.MaxTokens = ptr(gen.MaxTokens)
	clientCfg.TopK = ptr(gen.TopK)
	clientCfg.TopP = ptr(gen.TopP)
	if gen.Timeout > 0 {
		clientCfg.Timeout = gen.Timeout
	}

	var (
		client Client
		err    error
	)
	switch gen.Provider {
	case ProviderOllama:
		client, err = NewOllamaClient(clientCfg)
	case ProviderOpenAI:
		client, err = NewOpenAIClient(gen.APIKey, clientCfg)
	case ProviderRustBert:
		client = NewRustBertClient()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownProvider, gen.Provider)
	}
	if err != nil {
		return nil, err
	}

	if gen.MaxRetries > 0 {
		retryCfg := DefaultRetryConfig()
		retryCfg.MaxRetries = gen.MaxRetries
		client = NewRetryClient(client, retryCfg, logger)
	}

	if cfg.CircuitBreaker.Enabled {
		client = NewCircuitBreakerClient(client, cfg.CircuitBreaker, alert.New(cfg.Alert, logger), gen.Provider, logger)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.TokenUsagePath != "" {
		tracker, err := NewTokenTracker(filepath.Clean(cfg.Telemetry.TokenUsagePath), cfg.Telemetry.BatchSize)
		if err != nil {
			return nil, err
		}
		client = NewTokenTrackingClient(client, tracker, logger)
	}

	return client, nil
}
