// Package prefs persists small user preferences, such as the density tier,
// in a BoltDB bucket.
package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName        = "fygallery_prefs.db"
	PreferencesBucket = "Preferences"
)

// Keys used by the gallery.
const (
	KeyDensityTier   = "gallery-density-tier"
	KeyOverscan      = "gallery-overscan"
	KeyLastDirectory = "gallery-last-directory"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("prefs: key not found")

// Store is a key/value preference store.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the preference database in dir.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(PreferencesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", PreferencesBucket, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetString returns the stored value of key.
func (s *Store) GetString(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(PreferencesBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = string(v)
		return nil
	})
	return value, err
}

// StringWithFallback returns the stored value of key or fallback if unset.
func (s *Store) StringWithFallback(key, fallback string) string {
	v, err := s.GetString(key)
	if err != nil {
		return fallback
	}
	return v
}

// GetInt returns the stored value of key as an int.
func (s *Store) GetInt(key string) (int, error) {
	v, err := s.GetString(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("prefs: %s is not an int: %w", key, err)
	}
	return n, nil
}

// IntWithFallback returns the stored int value of key or fallback.
func (s *Store) IntWithFallback(key string, fallback int) int {
	n, err := s.GetInt(key)
	if err != nil {
		return fallback
	}
	return n
}

// SetString stores value under key.
func (s *Store) SetString(key, value string) error {
	if key == "" {
		return errors.New("prefs: empty key")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PreferencesBucket)).Put([]byte(key), []byte(value))
	})
}

// SetInt stores an int under key.
func (s *Store) SetInt(key string, value int) error {
	return s.SetString(key, strconv.Itoa(value))
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PreferencesBucket)).Delete([]byte(key))
	})
}

// All returns every stored preference.
func (s *Store) All() (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PreferencesBucket)).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}
