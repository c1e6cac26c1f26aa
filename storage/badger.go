package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timshannon/badgerhold/v4"
)

// linesRecord is the persisted shape of one key.
type linesRecord struct {
	Key       string
	Lines     []string
	UpdatedAt time.Time
}

// BadgerStore keeps keyed line buffers in an embedded Badger database.
type BadgerStore struct {
	store *badgerhold.Store
	path  string
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger database: %w", err)
	}
	slog.Debug("badger store opened", "path", path)

	return &BadgerStore{store: store, path: path}, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Load returns the lines stored under key, or ErrNotFound.
func (s *BadgerStore) Load(_ context.Context, key string) ([]string, error) {
	var rec linesRecord
	err := s.store.Get(normalizeKey(key), &rec)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %q: %w", key, err)
	}
	if rec.Lines == nil {
		return []string{}, nil
	}
	return rec.Lines, nil
}

// Save replaces the lines stored under key.
func (s *BadgerStore) Save(_ context.Context, key string, lines []string) error {
	k := normalizeKey(key)
	rec := linesRecord{Key: k, Lines: lines, UpdatedAt: time.Now()}
	if err := s.store.Upsert(k, &rec); err != nil {
		return fmt.Errorf("storage: upsert %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.store.Delete(normalizeKey(key), linesRecord{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
