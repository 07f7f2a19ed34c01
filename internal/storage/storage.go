package storage

import (
	"errors"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

var (
	// ErrDuplicateID is returned by Save when the id is already stored
	ErrDuplicateID = errors.New("module record already exists")
	// ErrNotFound is returned when an id has no stored record
	ErrNotFound = errors.New("module record not found")
)

// Store is the persistence collaborator for module records. Calls may
// be slow or fail; the registry surfaces failures without retrying.
type Store interface {
	// ListInstalled returns every persisted module record
	ListInstalled() ([]*types.ModuleRecord, error)
	// Save persists a new record; fails with ErrDuplicateID on collision
	Save(record *types.ModuleRecord) (*types.ModuleRecord, error)
	// UpdateConfig replaces the stored config map for id
	UpdateConfig(id string, config map[string]interface{}) error
	// UpdateEnabled flips the stored enabled flag for id
	UpdateEnabled(id string, enabled bool) error
	// Remove deletes the record; fails with ErrNotFound if id is absent
	Remove(id string) error
}
