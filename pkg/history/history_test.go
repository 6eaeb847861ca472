package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/config"
	"github.com/soundprediction/hybridrag/pkg/types"
)

func newInMemoryBadger(t *testing.T, maxEntries int) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	return NewBadgerStore(db, maxEntries)
}

func stores(t *testing.T, maxEntries int) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(maxEntries),
		"badger": newInMemoryBadger(t, maxEntries),
	}
}

func exchange(i int) Exchange {
	return Exchange{
		Question:  fmt.Sprintf("question %d", i),
		Answer:    fmt.Sprintf("answer %d", i),
		Sources:   []types.Source{{KnowledgeBase: "Mammals", EntryTitle: "Lion", RelevanceScore: 1.65}},
		Timestamp: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func TestAppendAndGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			for i := 0; i < 3; i++ {
				require.NoError(t, store.Append(ctx, "s1", exchange(i)))
			}
			require.NoError(t, store.Append(ctx, "s2", exchange(9)))

			got, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, got, 3)
			for i, ex := range got {
				assert.Equal(t, fmt.Sprintf("question %d", i), ex.Question)
				assert.True(t, ex.Timestamp.Equal(exchange(i).Timestamp))
			}
			assert.Equal(t, "Lion", got[0].Sources[0].EntryTitle)

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestGetUnknownSession(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			got, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t, 3) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			for i := 0; i < 5; i++ {
				require.NoError(t, store.Append(ctx, "s", exchange(i)))
			}

			got, err := store.Get(ctx, "s")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "question 2", got[0].Question)
			assert.Equal(t, "question 4", got[2].Question)
		})
	}
}

func TestAppendStampsMissingFields(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			require.NoError(t, store.Append(ctx, "s", Exchange{Question: "q", Answer: "a"}))
			got, err := store.Get(ctx, "s")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.False(t, got[0].Timestamp.IsZero())
			assert.NotNil(t, got[0].Sources)
		})
	}
}

func TestInvalidSessionID(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			for _, id := range []string{"", "  ", "a/b"} {
				assert.ErrorIs(t, store.Append(ctx, id, exchange(0)), ErrInvalidSessionID)
				_, err := store.Get(ctx, id)
				assert.ErrorIs(t, err, ErrInvalidSessionID)
			}
		})
	}
}

func TestSessionPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	store := newInMemoryBadger(t, 10)
	defer store.Close()

	require.NoError(t, store.Append(ctx, "abc", exchange(0)))
	require.NoError(t, store.Append(ctx, "ab", exchange(1)))

	got, err := store.Get(ctx, "ab")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "question 1", got[0].Question)
}

func TestBadgerStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history")

	store, err := OpenBadgerStore(path, 10)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "s", exchange(0)))
	require.NoError(t, store.Close())

	store, err = OpenBadgerStore(path, 10)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(ctx, "s", exchange(1)))
	got, err := store.Get(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "question 1", got[1].Question)
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore(0)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Append(context.Background(), "s", exchange(0)), ErrClosed)
	_, err := store.Count(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNew(t *testing.T) {
	store, err := New(config.HistoryConfig{Backend: "memory", MaxEntries: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = New(config.HistoryConfig{Backend: "badger", Path: filepath.Join(t.TempDir(), "h"), MaxEntries: 5})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, store)
	require.NoError(t, store.Close())

	_, err = New(config.HistoryConfig{Backend: "redis"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewSessionID())
}
