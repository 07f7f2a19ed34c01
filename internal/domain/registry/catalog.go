package registry

import (
	"sort"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// catalogView exposes the manager's tables to the resolver without
// taking the manager lock. Every resolver call happens while the
// manager already holds mu, so the view reads the maps directly.
type catalogView struct {
	m *Manager
}

func (v *catalogView) Module(id string) (*types.Module, bool) {
	mod, ok := v.m.modules[id]
	return mod, ok
}

func (v *catalogView) Status(id string) (types.Status, bool) {
	state, ok := v.m.states[id]
	if !ok {
		return "", false
	}
	return state.Status, true
}

func (v *catalogView) IDs() []string {
	ids := make([]string, 0, len(v.m.modules))
	for id := range v.m.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
