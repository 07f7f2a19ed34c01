package manifest

import (
	"sort"
	"sync"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// ConditionChecker evaluates a custom achievement condition against
// engine-supplied progress data. The runtime only stores the binding;
// the gamification engine calls it.
type ConditionChecker func(params map[string]interface{}, progress map[string]float64) bool

// ConditionRegistry resolves custom achievement validators by name.
// Arbitrary callables never cross the module boundary; a descriptor may
// only reference checkers registered here.
type ConditionRegistry struct {
	mu       sync.RWMutex
	checkers map[string]ConditionChecker
}

// NewConditionRegistry creates a registry seeded with the built-in
// condition kinds so non-custom conditions always resolve.
func NewConditionRegistry() *ConditionRegistry {
	r := &ConditionRegistry{checkers: make(map[string]ConditionChecker)}
	r.Register(string(types.ConditionCount), thresholdChecker("count"))
	r.Register(string(types.ConditionStreak), thresholdChecker("streak"))
	r.Register(string(types.ConditionCompletion), func(_ map[string]interface{}, progress map[string]float64) bool {
		return progress["completion"] >= 1
	})
	return r
}

// Register binds a checker to a name, replacing any previous binding
func (r *ConditionRegistry) Register(name string, checker ConditionChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Lookup returns the checker bound to name
func (r *ConditionRegistry) Lookup(name string) (ConditionChecker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checkers[name]
	return c, ok
}

// Names lists registered checker names in stable order
func (r *ConditionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func thresholdChecker(key string) ConditionChecker {
	return func(params map[string]interface{}, progress map[string]float64) bool {
		target, _ := params["target"].(float64)
		return target > 0 && progress[key] >= target
	}
}
