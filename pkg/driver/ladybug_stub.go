//go:build !cgo

package driver

import (
	"errors"
	"log/slog"
)

// ErrCGORequired is returned when the Ladybug store is requested without CGO support.
var ErrCGORequired = errors.New("ladybug store requires CGO; build with CGO_ENABLED=1")

// LadybugConfig holds configuration options for LadybugStore.
type LadybugConfig struct {
	DBPath            string
	BufferPoolSize    uint64
	MaxNumThreads     uint64
	EnableCompression bool
}

// DefaultLadybugConfig returns a LadybugConfig with sensible defaults.
func DefaultLadybugConfig() *LadybugConfig {
	return &LadybugConfig{DBPath: ":memory:"}
}

// LadybugStore is unavailable without CGO.
type LadybugStore struct {
	GraphStore
}

// NewLadybugStore returns ErrCGORequired when CGO is disabled.
func NewLadybugStore(cfg *LadybugConfig, logger *slog.Logger) (*LadybugStore, error) {
	return nil, ErrCGORequired
}
