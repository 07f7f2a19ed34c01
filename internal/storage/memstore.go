package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// MemStore is an in-memory Store for tests and ephemeral deployments
type MemStore struct {
	mu      sync.Mutex
	records map[string]*types.ModuleRecord

	// FailSave, when set, makes the next Save return this error.
	// Registry tests use it to exercise persistence failure paths.
	FailSave error
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*types.ModuleRecord)}
}

// ListInstalled returns every record in stable id order
func (s *MemStore) ListInstalled() ([]*types.ModuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*types.ModuleRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

// Save persists a new record
func (s *MemStore) Save(record *types.ModuleRecord) (*types.ModuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave != nil {
		err := s.FailSave
		s.FailSave = nil
		return nil, err
	}
	if record.ID == "" {
		return nil, fmt.Errorf("module record id is required")
	}
	if _, exists := s.records[record.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, record.ID)
	}

	saved := record.Clone()
	now := time.Now().UTC()
	saved.CreatedAt = now
	saved.UpdatedAt = now
	s.records[record.ID] = saved
	return saved.Clone(), nil
}

// UpdateConfig replaces the stored config map
func (s *MemStore) UpdateConfig(id string, config map[string]interface{}) error {
	return s.update(id, func(record *types.ModuleRecord) {
		record.Config = types.CloneConfig(config)
	})
}

// UpdateEnabled flips the stored enabled flag
func (s *MemStore) UpdateEnabled(id string, enabled bool) error {
	return s.update(id, func(record *types.ModuleRecord) {
		record.IsEnabled = enabled
	})
}

// Remove deletes the record
func (s *MemStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemStore) update(id string, mutate func(*types.ModuleRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	mutate(record)
	record.UpdatedAt = time.Now().UTC()
	return nil
}
