package types

import "time"

// Status represents module lifecycle states
type Status string

const (
	StatusInstalling   Status = "installing"
	StatusInstalled    Status = "installed"
	StatusEnabled      Status = "enabled"
	StatusDisabled     Status = "disabled"
	StatusError        Status = "error"
	StatusUninstalling Status = "uninstalling"
)

// ModuleState is the registry's mutable record for a registered module.
// Dependents is computed, never declared: it always equals the set of
// modules whose dependency map names this module.
type ModuleState struct {
	ModuleID     string                 `json:"module_id"`
	Status       Status                 `json:"status"`
	Version      string                 `json:"version"`
	LastError    string                 `json:"last_error,omitempty"`
	Config       map[string]interface{} `json:"config,omitempty"`
	Dependencies []string               `json:"dependencies,omitempty"`
	Dependents   []string               `json:"dependents,omitempty"`
	InstalledAt  time.Time              `json:"installed_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of the state
func (s *ModuleState) Clone() *ModuleState {
	if s == nil {
		return nil
	}
	out := *s
	out.Config = CloneConfig(s.Config)
	out.Dependencies = append([]string(nil), s.Dependencies...)
	out.Dependents = append([]string(nil), s.Dependents...)
	return &out
}

// ModuleRecord is the persisted shape of a module, exchanged with the
// storage collaborator. Timestamps are owned by the store.
type ModuleRecord struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	IsEnabled   bool                   `json:"is_enabled"`
	IsInstalled bool                   `json:"is_installed"`
	Config      map[string]interface{} `json:"config,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Clone returns a deep copy of the record
func (r *ModuleRecord) Clone() *ModuleRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Config = CloneConfig(r.Config)
	return &out
}
