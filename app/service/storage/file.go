package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*FileStore)(nil)

type jsonLineItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileStore keeps every entry as one JSON line and rewrites the whole file on each mutation.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func OpenFile(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage file: %w", err)
	}
	defer file.Close()

	return &FileStore{path: path}, nil
}

// load skips lines it cannot parse, so a damaged file reads as missing entries and the next
// mutation rewrites it clean.
func (s *FileStore) load() ([]jsonLineItem, error) {
	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage file: %w", err)
	}
	defer file.Close()

	var items []jsonLineItem

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item jsonLineItem
		if err = json.Unmarshal([]byte(line), &item); err != nil {
			slog.Warn("Skipping corrupt storage line", "path", s.path, "error", err)
			continue
		}

		items = append(items, item)
	}

	if err = scanner.Err(); err != nil {
		slog.Warn("Storage file is unreadable past this point", "path", s.path, "error", err)
	}

	return items, nil
}

func (s *FileStore) save(items []jsonLineItem) error {
	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create/open storage file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		if _, err = writer.WriteString(string(data) + "\n"); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.load()
	if err != nil {
		return "", false, err
	}

	for _, item := range items {
		if item.Key == key {
			return item.Value, true, nil
		}
	}

	return "", false, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range items {
		if items[i].Key == key {
			items[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, jsonLineItem{Key: key, Value: value})
	}

	return s.save(items)
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.Key != key {
			kept = append(kept, item)
		}
	}

	return s.save(kept)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) Shutdown() error {
	return s.Close()
}
