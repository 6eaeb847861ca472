package logger_test

import (
	"log/slog"
	"os"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/logger"
)

func ExampleNewDefaultLogger() {
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Debug("retrieval complete", "semantic", 20, "keyword", 5, "related", 3)
	log.Info("processing query", "question", "What do lions eat?")
	log.Info("Persisting entries", "count", 42) // green in a terminal
	log.Warn("generation failed", "error", "timeout")
	log.Error("retrieval failed", "kind", "connectivity")
}

func ExampleNew() {
	log := logger.New(config.LogConfig{Level: "debug", Format: "color"}, os.Stderr)
	log.Info("ingested entry", "entry_id", "Mammals:Entry:Lion")
}
