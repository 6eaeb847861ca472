// Package telemetry persists error-level log records to parquet files for
// offline analysis.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultBatchSize is the number of records buffered before a file is written.
const DefaultBatchSize = 100

// LogRecord represents a single log entry for Parquet storage
type LogRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Level         string    `parquet:"level"`
	Message       string    `parquet:"message"`
	UserID        string    `parquet:"user_id"`
	SessionID     string    `parquet:"session_id"`
	RequestSource string    `parquet:"request_source"`
	SourceFile    string    `parquet:"source_file"`
	LineNumber    int       `parquet:"line_number"`
	Attributes    string    `parquet:"attributes"` // JSON object
}

// sink is the buffer shared by a handler and the handlers derived from it.
type sink struct {
	mu        sync.Mutex
	outputDir string
	batchSize int
	buffer    []LogRecord
	seq       int
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally buffers error-level records, writing them to a new
// parquet file whenever the batch fills and on Close.
type ParquetHandler struct {
	next  slog.Handler
	sink  *sink
	attrs []slog.Attr
}

// NewParquetHandler creates a new ParquetHandler writing under outputDir.
func NewParquetHandler(next slog.Handler, outputDir string, batchSize int) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ParquetHandler{
		next: next,
		sink: &sink{
			outputDir: outputDir,
			batchSize: batchSize,
			buffer:    make([]LogRecord, 0, batchSize),
		},
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	record := h.record(ctx, r)

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.buffer = append(h.sink.buffer, record)
	if len(h.sink.buffer) >= h.sink.batchSize {
		return h.sink.flush()
	}
	return nil
}

func (h *ParquetHandler) record(ctx context.Context, r slog.Record) LogRecord {
	var userID, sessionID, requestSource string
	if v, ok := ctx.Value(types.ContextKeyUserID).(string); ok {
		userID = v
	}
	if v, ok := ctx.Value(types.ContextKeySessionID).(string); ok {
		sessionID = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestSource).(string); ok {
		requestSource = v
	}

	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = attrValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = attrValue(a.Value)
		return true
	})
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		attrsJSON = []byte("{}")
	}

	var sourceFile string
	var line int
	if r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		sourceFile, line = f.File, f.Line
	}

	return LogRecord{
		ID:            uuid.New().String(),
		Timestamp:     r.Time.UTC(),
		Level:         r.Level.String(),
		Message:       r.Message,
		UserID:        userID,
		SessionID:     sessionID,
		RequestSource: requestSource,
		SourceFile:    sourceFile,
		LineNumber:    line,
		Attributes:    string(attrsJSON),
	}
}

// attrValue converts a value to something encoding/json renders readably.
func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := make(map[string]any)
		for _, a := range v.Group() {
			group[a.Key] = attrValue(a.Value)
		}
		return group
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// flush writes the current buffer to a new Parquet file.
// Caller must hold the lock.
func (s *sink) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	s.seq++
	name := fmt.Sprintf("execution_errors_%s_%d_%03d.parquet", time.Now().Format("20060102_150405"), os.Getpid(), s.seq)
	if err := parquet.WriteFile(filepath.Join(s.outputDir, name), s.buffer); err != nil {
		return fmt.Errorf("write telemetry parquet file: %w", err)
	}

	s.buffer = s.buffer[:0]
	return nil
}

// Flush writes any buffered records.
func (h *ParquetHandler) Flush() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return h.sink.flush()
}

// Close flushes buffered records. Derived handlers share the buffer, so
// closing any of them flushes all.
func (h *ParquetHandler) Close() error {
	return h.Flush()
}

// WithAttrs implements slog.Handler
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{
		next:  h.next.WithAttrs(attrs),
		sink:  h.sink,
		attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next:  h.next.WithGroup(name),
		sink:  h.sink,
		attrs: h.attrs,
	}
}
