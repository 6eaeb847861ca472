package hybridrag

import (
	"io"
	"log/slog"
	"os"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/logger"
	"github.com/soundprediction/hybridrag/pkg/telemetry"
)

// newLogger builds the process logger. With telemetry enabled, error records
// are also persisted to parquet; the returned closer flushes them.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	log := logger.New(cfg.Log, os.Stderr)
	if !cfg.Telemetry.Enabled || cfg.Telemetry.ParquetPath == "" {
		return log, nopCloser{}
	}

	handler, err := telemetry.NewParquetHandler(log.Handler(), cfg.Telemetry.ParquetPath, cfg.Telemetry.BatchSize)
	if err != nil {
		log.Warn("failed to initialize error tracking", "error", err)
		return log, nopCloser{}
	}
	log = slog.New(handler)
	log.Info("error tracking enabled", "path", cfg.Telemetry.ParquetPath)
	return log, handler
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
