package resolver

import (
	"fmt"
	"sort"

	"github.com/solstreakhq/solstreak/backend/internal/shared/semver"
)

// InstallationOrder topologically sorts ids so that every module
// appears after all of its in-batch dependencies (Kahn's algorithm over
// the induced subgraph). Edges pointing outside the batch are ignored;
// an unsortable remainder means a cycle and returns an error naming it.
func (r *Resolver) InstallationOrder(ids []string) ([]string, error) {
	inBatch := make(map[string]bool, len(ids))
	for _, id := range ids {
		inBatch[id] = true
	}

	indegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		indegree[id] += 0
		m, ok := r.catalog.Module(id)
		if !ok {
			continue
		}
		for _, depID := range m.DependencyIDs() {
			if !inBatch[depID] || depID == id {
				continue
			}
			indegree[id]++
			dependents[depID] = append(dependents[depID], id)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		released := dependents[id]
		sort.Strings(released)
		for _, depID := range released {
			indegree[depID]--
			if indegree[depID] == 0 {
				ready = insertSorted(ready, depID)
			}
		}
	}

	if len(order) != len(indegree) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("installation order contains a dependency cycle among: %v", stuck)
	}

	return order, nil
}

// ChainIssue is one problem found while validating a dependency chain
type ChainIssue struct {
	ModuleID     string `json:"module_id"`
	DependencyID string `json:"dependency_id,omitempty"`
	Kind         string `json:"kind"` // "missing", "version", "cycle"
	Detail       string `json:"detail"`
}

// ValidateChain recursively checks the whole dependency chain rooted at
// id and returns every issue found rather than stopping at the first.
func (r *Resolver) ValidateChain(id string) []ChainIssue {
	var issues []ChainIssue
	visited := make(map[string]bool)

	var visit func(moduleID string, path []string)
	visit = func(moduleID string, path []string) {
		for _, ancestor := range path {
			if ancestor == moduleID {
				issues = append(issues, ChainIssue{
					ModuleID: moduleID,
					Kind:     "cycle",
					Detail:   fmt.Sprintf("dependency cycle: %s", joinPath(append(path, moduleID))),
				})
				return
			}
		}
		if visited[moduleID] {
			return
		}
		visited[moduleID] = true

		m, ok := r.catalog.Module(moduleID)
		if !ok {
			return
		}
		path = append(path, moduleID)

		for _, depID := range m.DependencyIDs() {
			required := m.Metadata.Dependencies[depID]
			dep, present := r.catalog.Module(depID)
			if !present {
				issues = append(issues, ChainIssue{
					ModuleID:     moduleID,
					DependencyID: depID,
					Kind:         "missing",
					Detail:       fmt.Sprintf("module %q requires %q which is not installed", moduleID, depID),
				})
				continue
			}
			if !semver.Satisfies(dep.Version, required) {
				issues = append(issues, ChainIssue{
					ModuleID:     moduleID,
					DependencyID: depID,
					Kind:         "version",
					Detail:       fmt.Sprintf("module %q requires %q %s but %s is installed", moduleID, depID, required, dep.Version),
				})
			}
			visit(depID, path)
		}
	}

	visit(id, nil)
	return issues
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += " -> "
		}
		out += p
	}
	return out
}

func insertSorted(s []string, v string) []string {
	i := sort.SearchStrings(s, v)
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
