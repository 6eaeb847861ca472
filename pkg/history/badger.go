package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "session/"

// BadgerStore persists exchanges in a badger database under keys
// session/{id}/{seq}, where seq is zero-padded so keys sort in append order.
type BadgerStore struct {
	db         *badger.DB
	maxEntries int

	// appends are serialized so sequence allocation never conflicts.
	mu sync.Mutex
}

// OpenBadgerStore opens or creates a badger database at path.
func OpenBadgerStore(path string, maxEntries int) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger history requires a path")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return NewBadgerStore(db, maxEntries), nil
}

// NewBadgerStore wraps an already open database. The store takes ownership of db.
func NewBadgerStore(db *badger.DB, maxEntries int) *BadgerStore {
	return &BadgerStore{db: db, maxEntries: maxOrDefault(maxEntries)}
}

func sessionKeyPrefix(sessionID string) []byte {
	return []byte(sessionPrefix + sessionID + "/")
}

func exchangeKey(sessionID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", sessionPrefix, sessionID, seq))
}

func seqFromKey(key []byte) (uint64, error) {
	i := bytes.LastIndexByte(key, '/')
	return strconv.ParseUint(string(key[i+1:]), 10, 64)
}

func (s *BadgerStore) Append(ctx context.Context, sessionID string, ex Exchange) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	value, err := json.Marshal(stamp(ex))
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		prefix := sessionKeyPrefix(sessionID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		var keys [][]byte
		it := txn.NewIterator(opts)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		var next uint64
		if len(keys) > 0 {
			last, err := seqFromKey(keys[len(keys)-1])
			if err != nil {
				return fmt.Errorf("corrupt history key %q: %w", keys[len(keys)-1], err)
			}
			next = last + 1
		}

		if err := txn.Set(exchangeKey(sessionID, next), value); err != nil {
			return err
		}

		for over := len(keys) + 1 - s.maxEntries; over > 0; over-- {
			if err := txn.Delete(keys[0]); err != nil {
				return err
			}
			keys = keys[1:]
		}
		return nil
	})
}

func (s *BadgerStore) Get(ctx context.Context, sessionID string) ([]Exchange, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	out := []Exchange{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := sessionKeyPrefix(sessionID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ex Exchange
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ex)
			}); err != nil {
				return fmt.Errorf("decode exchange: %w", err)
			}
			out = append(out, ex)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	sessions := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(sessionPrefix)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), sessionPrefix)
			if i := strings.IndexByte(rest, '/'); i > 0 {
				sessions[rest[:i]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
