// Package bolt persists history lists in a BoltDB file, one JSON document
// per list path.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
)

// FileName is the database file inside the data directory.
const FileName = "history.db"

// DefaultOpenTimeout is how long Open waits for the file lock held by
// another gitscope process.
const DefaultOpenTimeout = time.Second

var bucketHistory = []byte("history") // path -> []HistoryItem JSON

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore implements driven.HistoryStore using BoltDB.
type HistoryStore struct {
	db *bbolt.DB
	mu sync.RWMutex
}

// Open opens or creates the history database in dataDir.
func Open(dataDir string) (*HistoryStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, FileName), 0600, &bbolt.Options{
		Timeout: DefaultOpenTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store, err := NewHistoryStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewHistoryStore wraps an open database, creating the bucket if needed.
func NewHistoryStore(db *bbolt.DB) (*HistoryStore, error) {
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketHistory)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *HistoryStore) Path() string {
	return s.db.Path()
}

// Load implements driven.HistoryStore.Load.
func (s *HistoryStore) Load(ctx context.Context, path string) ([]domain.HistoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []domain.HistoryItem{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketHistory).Get([]byte(path))
		if data == nil {
			return nil
		}
		if unmarshalErr := json.Unmarshal(data, &items); unmarshalErr != nil {
			return fmt.Errorf("failed to decode %s: %w", path, unmarshalErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Save implements driven.HistoryStore.Save.
func (s *HistoryStore) Save(ctx context.Context, path string, items []domain.HistoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []domain.HistoryItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		if putErr := tx.Bucket(bucketHistory).Put([]byte(path), data); putErr != nil {
			return fmt.Errorf("failed to store %s: %w", path, putErr)
		}
		return nil
	})
}
