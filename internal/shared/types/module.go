package types

import (
	"context"
	"sort"
)

// Tier represents achievement rarity tiers
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// ConditionType discriminates achievement unlock conditions
type ConditionType string

const (
	ConditionCount      ConditionType = "count"
	ConditionStreak     ConditionType = "streak"
	ConditionCompletion ConditionType = "completion"
	ConditionCustom     ConditionType = "custom"
)

// Condition describes when an achievement unlocks. Count and streak
// conditions require a positive Target; custom conditions reference a
// named checker by key (the gamification engine owns the implementation).
type Condition struct {
	Type      ConditionType          `json:"type"`
	Target    float64                `json:"target,omitempty"`
	Validator string                 `json:"validator,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// Achievement is a module-declared achievement definition
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Tier        Tier      `json:"tier"`
	XPReward    int       `json:"xp_reward"`
	Condition   Condition `json:"condition"`
}

// PointsConfig holds a module's points tuning. Multipliers are keyed by
// difficulty name; StreakBonus is a fraction added per consecutive day.
type PointsConfig struct {
	BasePoints  int                `json:"base_points"`
	Multipliers map[string]float64 `json:"multipliers"`
	StreakBonus float64            `json:"streak_bonus"`
}

// Difficulty keys every points configuration is expected to carry
var DifficultyLevels = []string{"easy", "medium", "hard", "epic"}

// Metadata holds descriptive module fields, including the declared
// dependency map (module id -> required version range).
type Metadata struct {
	Author           string            `json:"author"`
	Description      string            `json:"description"`
	Keywords         []string          `json:"keywords,omitempty"`
	License          string            `json:"license"`
	Homepage         string            `json:"homepage,omitempty"`
	Repository       string            `json:"repository,omitempty"`
	MinSystemVersion string            `json:"min_system_version"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
}

// ComponentFunc produces a UI entry point. The returned value is opaque
// to the runtime; the frontend layer interprets it.
type ComponentFunc func() interface{}

// Components are the four fixed UI entry points every module exposes
type Components struct {
	Dashboard ComponentFunc `json:"-"`
	Card      ComponentFunc `json:"-"`
	Settings  ComponentFunc `json:"-"`
	Widget    ComponentFunc `json:"-"`
}

// HookFunc is a module lifecycle hook. Hooks may be slow or fail; the
// registry never imposes a timeout on them.
type HookFunc func(ctx context.Context) error

// ConfigHookFunc is invoked on configuration replacement with the old
// and new config maps.
type ConfigHookFunc func(ctx context.Context, oldConfig, newConfig map[string]interface{}) error

// Hooks are the module-supplied lifecycle callbacks. Install, Uninstall,
// Enable and Disable are required; ConfigChange is optional.
type Hooks struct {
	Install      HookFunc       `json:"-"`
	Uninstall    HookFunc       `json:"-"`
	Enable       HookFunc       `json:"-"`
	Disable      HookFunc       `json:"-"`
	ConfigChange ConfigHookFunc `json:"-"`
}

// Module is the immutable descriptor of a registered module
type Module struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Icon         string        `json:"icon"`
	Color        string        `json:"color"`
	Metadata     Metadata      `json:"metadata"`
	Components   Components    `json:"-"`
	Hooks        Hooks         `json:"-"`
	Achievements []Achievement `json:"achievements,omitempty"`
	Points       *PointsConfig `json:"points,omitempty"`
	Permissions  []string      `json:"permissions,omitempty"`
	Capabilities []string      `json:"capabilities,omitempty"`
}

// Clone returns a deep copy of the descriptor. Hook and component
// functions are shared; everything else is copied.
func (m *Module) Clone() *Module {
	if m == nil {
		return nil
	}
	out := *m
	out.Metadata.Keywords = append([]string(nil), m.Metadata.Keywords...)
	out.Metadata.Dependencies = CloneStringMap(m.Metadata.Dependencies)
	out.Achievements = make([]Achievement, len(m.Achievements))
	for i, a := range m.Achievements {
		out.Achievements[i] = a
		out.Achievements[i].Condition.Params = CloneConfig(a.Condition.Params)
	}
	if m.Points != nil {
		pts := *m.Points
		pts.Multipliers = make(map[string]float64, len(m.Points.Multipliers))
		for k, v := range m.Points.Multipliers {
			pts.Multipliers[k] = v
		}
		out.Points = &pts
	}
	out.Permissions = append([]string(nil), m.Permissions...)
	out.Capabilities = append([]string(nil), m.Capabilities...)
	return &out
}

// DependencyIDs returns the declared dependency ids in stable order
func (m *Module) DependencyIDs() []string {
	if len(m.Metadata.Dependencies) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.Metadata.Dependencies))
	for id := range m.Metadata.Dependencies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloneStringMap copies a string map, preserving nil
func CloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneConfig shallow-copies an arbitrary config map, preserving nil
func CloneConfig(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
