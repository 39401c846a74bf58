// Package session remembers the selected category and interval across
// restarts. Images are never stored.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	selectionKey  = []byte("selection")
)

// Selection is the user-facing state worth restoring.
type Selection struct {
	CategoryName    string    `json:"category_name"`
	CategoryIndex   int       `json:"category_index"`
	IntervalMinutes int       `json:"interval_minutes"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Store struct {
	db *bolt.DB
}

// Open opens or creates the session database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(sessionBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved selection. ok is false when nothing was saved yet.
func (s *Store) Load() (sel Selection, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(selectionKey)
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &sel)
	})
	if err != nil {
		return Selection{}, false, fmt.Errorf("loading session: %w", err)
	}
	return sel, ok, nil
}

// Save replaces the stored selection.
func (s *Store) Save(sel Selection) error {
	if sel.UpdatedAt.IsZero() {
		sel.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(selectionKey, data)
	})
}
