package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// FileStore persists one JSON document per module under a directory,
// with an in-memory cache in front of the filesystem.
type FileStore struct {
	dir   string
	cache sync.Map // id -> *types.ModuleRecord
	mu    sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create module store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// ListInstalled reads every record file in the directory
func (s *FileStore) ListInstalled() ([]*types.ModuleRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module store directory: %w", err)
	}

	var records []*types.ModuleRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Save persists a new record, stamping timestamps
func (s *FileStore) Save(record *types.ModuleRecord) (*types.ModuleRecord, error) {
	if record.ID == "" {
		return nil, fmt.Errorf("module record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(record.ID)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}

	saved := *record
	now := time.Now().UTC()
	saved.CreatedAt = now
	saved.UpdatedAt = now
	saved.Config = types.CloneConfig(record.Config)

	if err := s.write(&saved); err != nil {
		return nil, err
	}
	return saved.Clone(), nil
}

// UpdateConfig replaces the stored config map
func (s *FileStore) UpdateConfig(id string, config map[string]interface{}) error {
	return s.update(id, func(record *types.ModuleRecord) {
		record.Config = types.CloneConfig(config)
	})
}

// UpdateEnabled flips the stored enabled flag
func (s *FileStore) UpdateEnabled(id string, enabled bool) error {
	return s.update(id, func(record *types.ModuleRecord) {
		record.IsEnabled = enabled
	})
}

// Remove deletes the record file and cache entry
func (s *FileStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(id)); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("failed to remove module record: %w", err)
	}
	s.cache.Delete(id)
	return nil
}

func (s *FileStore) update(id string, mutate func(*types.ModuleRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read(id)
	if err != nil {
		return err
	}
	mutate(record)
	record.UpdatedAt = time.Now().UTC()
	return s.write(record)
}

func (s *FileStore) read(id string) (*types.ModuleRecord, error) {
	if cached, ok := s.cache.Load(id); ok {
		return cached.(*types.ModuleRecord).Clone(), nil
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read module record: %w", err)
	}

	var record types.ModuleRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal module record %s: %w", id, err)
	}
	s.cache.Store(id, record.Clone())
	return &record, nil
}

func (s *FileStore) write(record *types.ModuleRecord) error {
	data, err := sonic.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal module record %s: %w", record.ID, err)
	}
	if err := os.WriteFile(s.path(record.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write module record %s: %w", record.ID, err)
	}
	s.cache.Store(record.ID, record.Clone())
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
