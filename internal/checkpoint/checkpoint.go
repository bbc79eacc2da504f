// Package checkpoint persists sampler progress and evaluator counters
// across process restarts, backed by an embedded BadgerDB instance.
//
// Grounded on internal/storage/storage.go's Storage type: same
// db.Update/db.View closure shape, same JSON-marshal-a-struct-under-a-key
// pattern, same ErrKeyNotFound-means-defaults convention. Repurposed
// from user preferences/game stats to sampler file cursors and
// accumulator-update/refresh counters.
package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyCursorPrefix = "cursor:"
	keyEvalStats    = "eval_stats"
)

// Store wraps a BadgerDB directory for sampler and evaluator state.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) the BadgerDB database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveCursor records fileName's current byte offset into the sampling
// stream, so a restarted process resumes rather than re-seeding a random
// position.
func (s *Store) SaveCursor(fileName string, cursor int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCursorPrefix+fileName), []byte(fmt.Sprintf("%d", cursor)))
	})
}

// LoadCursor returns fileName's saved cursor, or (0, false) if none was
// recorded.
func (s *Store) LoadCursor(fileName string) (int64, bool, error) {
	var cursor int64
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCursorPrefix + fileName))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			_, err := fmt.Sscanf(string(val), "%d", &cursor)
			return err
		})
	})

	return cursor, found, err
}

// EvalStats is the accumulator-update/refresh counter pair spec.md §9
// describes as an optional, process-wide, non-hot-path diagnostic.
type EvalStats struct {
	NumAccumulatorUpdates   uint64 `json:"num_accumulator_updates"`
	NumAccumulatorRefreshes uint64 `json:"num_accumulator_refreshes"`
}

// SaveEvalStats persists the evaluator's counters.
func (s *Store) SaveEvalStats(stats EvalStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyEvalStats), data)
	})
}

// LoadEvalStats loads the evaluator's counters, returning a zero value if
// none were saved yet.
func (s *Store) LoadEvalStats() (EvalStats, error) {
	var stats EvalStats
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyEvalStats))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	return stats, err
}
