package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solstreakhq/solstreak/backend/internal/shared/semver"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Catalog is the resolver's read-only view of registered modules.
// The registry passes an unsynchronized view while holding its own
// lock; tests pass a fixture.
type Catalog interface {
	Module(id string) (*types.Module, bool)
	Status(id string) (types.Status, bool)
	IDs() []string
}

// DependencyFact records the per-dependency outcome of a resolution
type DependencyFact struct {
	ID         string `json:"id"`
	Required   string `json:"required"`
	Installed  string `json:"installed,omitempty"`
	Available  bool   `json:"available"`
	Compatible bool   `json:"compatible"`
	Enabled    bool   `json:"enabled"`
	Reason     string `json:"reason,omitempty"`
}

// Resolution is the transient result of a resolve call; never persisted
type Resolution struct {
	ModuleID     string           `json:"module_id"`
	Dependencies []DependencyFact `json:"dependencies,omitempty"`
	Conflicts    []string         `json:"conflicts,omitempty"`
	CanInstall   bool             `json:"can_install"`
}

// Resolver evaluates dependency constraints against a catalog
type Resolver struct {
	catalog Catalog
}

// New creates a resolver over the given catalog
func New(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve checks whether moduleID, declaring deps, is installable right
// now. Each dependency is checked for availability, version
// compatibility and enablement; afterwards the combined graph is walked
// for cycles through moduleID. CanInstall is true iff no conflict was
// recorded.
func (r *Resolver) Resolve(moduleID string, deps map[string]string) Resolution {
	res := Resolution{ModuleID: moduleID}

	for _, depID := range sortedKeys(deps) {
		required := deps[depID]
		fact := DependencyFact{ID: depID, Required: required}

		dep, ok := r.catalog.Module(depID)
		if !ok {
			fact.Reason = "dependency not installed"
			res.Dependencies = append(res.Dependencies, fact)
			res.Conflicts = append(res.Conflicts, fmt.Sprintf("dependency %q is not installed", depID))
			continue
		}

		fact.Available = true
		fact.Installed = dep.Version
		fact.Compatible = semver.Satisfies(dep.Version, required)
		if !fact.Compatible {
			fact.Reason = fmt.Sprintf("installed version %s does not satisfy %s", dep.Version, required)
			res.Conflicts = append(res.Conflicts, fmt.Sprintf("dependency %q version %s does not satisfy required range %s", depID, dep.Version, required))
			res.Dependencies = append(res.Dependencies, fact)
			continue
		}

		status, _ := r.catalog.Status(depID)
		fact.Enabled = status == types.StatusEnabled
		if !fact.Enabled {
			fact.Reason = "dependency is not enabled"
			res.Conflicts = append(res.Conflicts, fmt.Sprintf("dependency %q is not enabled", depID))
		}
		res.Dependencies = append(res.Dependencies, fact)
	}

	if cycle := r.findCycle(moduleID, deps); cycle != nil {
		res.Conflicts = append(res.Conflicts, fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")))
	}

	res.CanInstall = len(res.Conflicts) == 0
	return res
}

// findCycle walks depth-first from rootID, using rootDeps for the root
// itself and registered dependency maps for everything else. Returns
// the full path back to rootID if one exists.
func (r *Resolver) findCycle(rootID string, rootDeps map[string]string) []string {
	// A node that provably cannot reach rootID never needs revisiting.
	exhausted := make(map[string]bool)

	var walk func(id string, deps []string, path []string) []string
	walk = func(id string, deps []string, path []string) []string {
		path = append(path, id)
		for _, depID := range deps {
			if depID == rootID {
				return append(path, rootID)
			}
			if exhausted[depID] {
				continue
			}
			exhausted[depID] = true
			if dep, ok := r.catalog.Module(depID); ok {
				if cycle := walk(depID, dep.DependencyIDs(), path); cycle != nil {
					return cycle
				}
			}
		}
		return nil
	}

	return walk(rootID, sortedKeys(rootDeps), nil)
}

// DependencyTree returns the transitive dependency closure of id in
// post-order: every dependency appears before the modules that need it,
// each id exactly once, the module itself last.
func (r *Resolver) DependencyTree(id string) []string {
	seen := make(map[string]bool)
	var order []string

	var visit func(moduleID string)
	visit = func(moduleID string) {
		if seen[moduleID] {
			return
		}
		seen[moduleID] = true
		if m, ok := r.catalog.Module(moduleID); ok {
			for _, depID := range m.DependencyIDs() {
				visit(depID)
			}
		}
		order = append(order, moduleID)
	}

	visit(id)
	return order
}

// Dependents returns the ids of registered modules whose declared
// dependency map names id.
func (r *Resolver) Dependents(id string) []string {
	var out []string
	for _, candidateID := range r.catalog.IDs() {
		if candidateID == id {
			continue
		}
		m, ok := r.catalog.Module(candidateID)
		if !ok {
			continue
		}
		if _, declared := m.Metadata.Dependencies[id]; declared {
			out = append(out, candidateID)
		}
	}
	sort.Strings(out)
	return out
}

// CanRemove reports whether id can be removed or disabled without
// breaking anyone: false when an enabled dependent exists, along with
// the blocking ids.
func (r *Resolver) CanRemove(id string) (bool, []string) {
	var blockers []string
	for _, depID := range r.Dependents(id) {
		if status, ok := r.catalog.Status(depID); ok && status == types.StatusEnabled {
			blockers = append(blockers, depID)
		}
	}
	return len(blockers) == 0, blockers
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
