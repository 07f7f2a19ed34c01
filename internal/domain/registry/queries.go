package registry

import (
	"sort"
	"strings"

	"github.com/solstreakhq/solstreak/backend/internal/domain/resolver"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// GetModule returns a copy of the registered module descriptor
func (m *Manager) GetModule(moduleID string) (*types.Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mod, ok := m.modules[moduleID]
	if !ok {
		return nil, false
	}
	return mod.Clone(), true
}

// GetModuleState returns a copy of the module's lifecycle state
func (m *Manager) GetModuleState(moduleID string) (*types.ModuleState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[moduleID]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// GetModules lists registered modules matching the filter, sorted by id
func (m *Manager) GetModules(filter types.Filter) []*types.Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.modules))
	for id := range m.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*types.Module, 0, len(ids))
	for _, id := range ids {
		if m.matchesLocked(id, filter) {
			out = append(out, m.modules[id].Clone())
		}
	}
	return out
}

// GetStates lists lifecycle states matching the filter, sorted by id.
// Unlike GetModules this includes error-state entries whose descriptor
// never materialized.
func (m *Manager) GetStates(filter types.Filter) []*types.ModuleState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*types.ModuleState, 0, len(ids))
	for _, id := range ids {
		if m.matchesLocked(id, filter) {
			out = append(out, m.states[id].Clone())
		}
	}
	return out
}

// GetStatistics summarizes the registry contents
func (m *Manager) GetStatistics() types.Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.Statistics{
		Total:    len(m.states),
		ByStatus: make(map[types.Status]int),
	}
	for _, state := range m.states {
		stats.ByStatus[state.Status]++
		switch state.Status {
		case types.StatusEnabled:
			stats.Enabled++
		case types.StatusError:
			stats.Errors++
		}
	}
	return stats
}

// Resolve evaluates a dependency map against the current registry
// without mutating anything.
func (m *Manager) Resolve(moduleID string, deps map[string]string) resolver.Resolution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolver.Resolve(moduleID, deps)
}

// DependencyTree returns moduleID's transitive dependency closure in
// install order.
func (m *Manager) DependencyTree(moduleID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolver.DependencyTree(moduleID)
}

// Dependents returns the registered modules that declare moduleID as a
// dependency.
func (m *Manager) Dependents(moduleID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolver.Dependents(moduleID)
}

// ValidateChain checks moduleID's whole dependency chain and returns
// every missing, incompatible or cyclic link.
func (m *Manager) ValidateChain(moduleID string) []resolver.ChainIssue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolver.ValidateChain(moduleID)
}

// InstallationOrder sorts the given module ids so dependencies precede
// their dependents.
func (m *Manager) InstallationOrder(ids []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolver.InstallationOrder(ids)
}

// matchesLocked applies a filter to one module. Caller holds mu.
func (m *Manager) matchesLocked(id string, filter types.Filter) bool {
	state := m.states[id]
	if state == nil {
		return false
	}

	if filter.Enabled != nil && (state.Status == types.StatusEnabled) != *filter.Enabled {
		return false
	}
	if filter.Installed != nil {
		installed := state.Status != types.StatusError
		if installed != *filter.Installed {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if state.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	mod := m.modules[id]
	if filter.Author != "" {
		if mod == nil || !strings.EqualFold(mod.Metadata.Author, filter.Author) {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if mod == nil {
			return strings.Contains(strings.ToLower(id), needle)
		}
		if strings.Contains(strings.ToLower(mod.ID), needle) ||
			strings.Contains(strings.ToLower(mod.Name), needle) ||
			strings.Contains(strings.ToLower(mod.Metadata.Description), needle) {
			return true
		}
		for _, kw := range mod.Metadata.Keywords {
			if strings.Contains(strings.ToLower(kw), needle) {
				return true
			}
		}
		return false
	}
	return true
}
