// Package snapshot persists the full ledger snapshot in a bbolt
// key-value database. It is the primary persistence gateway: one
// document, overwritten on every save.
package snapshot

import (
	"encoding/json"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/vadiminshakov/khata/internal/domain"
)

const (
	bucketLedger = "ledger"
	keySnapshot  = "snapshot"
)

// Store is a bbolt-backed snapshot store.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and its bucket.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketLedger))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create ledger bucket")
	}

	return &Store{db: db}, nil
}

// Load returns the persisted snapshot, or nil when none has been saved
// yet. A snapshot that fails to decode is an error, never a partial
// result.
func (s *Store) Load() (*domain.LedgerSnapshot, error) {
	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket([]byte(bucketLedger)).Get([]byte(keySnapshot)); data != nil {
			payload = make([]byte, len(data))
			copy(payload, data)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	if payload == nil {
		return nil, nil
	}

	var snap domain.LedgerSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return &snap, nil
}

// Save overwrites the stored snapshot.
func (s *Store) Save(snap domain.LedgerSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLedger)).Put([]byte(keySnapshot), payload)
	})
	return errors.Wrap(err, "write snapshot")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
