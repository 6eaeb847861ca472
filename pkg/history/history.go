// Package history records question/answer exchanges per conversation session.
//
// Two stores are provided: MemoryStore for single-process deployments and
// tests, and BadgerStore which persists exchanges on disk. Both cap the number
// of exchanges kept per session, discarding the oldest first.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultMaxEntries is the per-session cap used when none is configured.
const DefaultMaxEntries = 100

var (
	ErrInvalidSessionID = errors.New("session id must be non-empty and must not contain '/'")
	ErrUnknownBackend   = errors.New("unknown history backend")
	ErrClosed           = errors.New("history store is closed")
)

// Exchange is one answered question within a session.
type Exchange struct {
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	Sources   []types.Source `json:"sources"`
	Timestamp time.Time      `json:"timestamp"`
}

// Store is an append-only log of exchanges keyed by session.
type Store interface {
	// Append records an exchange, evicting the oldest ones beyond the cap.
	Append(ctx context.Context, sessionID string, ex Exchange) error
	// Get returns the exchanges of a session oldest first; an unknown session yields an empty slice.
	Get(ctx context.Context, sessionID string) ([]Exchange, error)
	// Count returns the number of sessions holding at least one exchange.
	Count(ctx context.Context) (int, error)
	Close() error
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// New opens the store selected by cfg.Backend.
func New(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.MaxEntries), nil
	case "badger":
		return OpenBadgerStore(cfg.Path, cfg.MaxEntries)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func validateSessionID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return ErrInvalidSessionID
	}
	return nil
}

func maxOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxEntries
	}
	return n
}

func stamp(ex Exchange) Exchange {
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}
	if ex.Sources == nil {
		ex.Sources = []types.Source{}
	}
	return ex
}
