package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*PebbleStore)(nil)

type PebbleStore struct {
	path string

	mu sync.RWMutex
	db *pebble.DB
}

func OpenPebble(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}

	slog.Info("Pebble store opened", "path", path)

	return &PebbleStore{db: db, path: path}, nil
}

func (s *PebbleStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", false, ErrClosed
	}

	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer closer.Close()

	// value is only valid until closer is closed
	return string(value), true, nil
}

func (s *PebbleStore) Set(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return ErrClosed
	}

	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (s *PebbleStore) Remove(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return ErrClosed
	}

	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}

	return nil
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble db: %w", err)
	}
	s.db = nil

	slog.Info("Pebble store closed", "path", s.path)

	return nil
}

func (s *PebbleStore) Shutdown() error {
	return s.Close()
}
