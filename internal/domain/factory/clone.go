package factory

import (
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Overrides selects the fields CloneModule replaces on top of the base
// descriptor. Zero values mean "keep the base"; maps are merged
// key-by-key over the base's.
type Overrides struct {
	ID      string
	Name    string
	Version string
	Icon    string
	Color   string

	Author       string
	Description  string
	Keywords     []string
	License      string
	Dependencies map[string]string

	Achievements []types.Achievement
	Points       *types.PointsConfig
	Permissions  []string
	Capabilities []string

	Components *types.Components
	Hooks      *types.Hooks

	Config map[string]interface{}
}

// CloneModule produces a new descriptor by merging overrides field by
// field over base, then re-validating. Without an ID override the clone
// gets a derived id, since ids are unique across the registry.
func (f *Factory) CloneModule(base *types.Module, overrides Overrides) (*types.Module, error) {
	if base == nil {
		return nil, &StructuralError{Field: "base", Reason: "must not be nil"}
	}

	clone := base.Clone()

	clone.ID = defaultString(overrides.ID, deriveCloneID(base.ID))
	clone.Name = defaultString(overrides.Name, clone.Name)
	clone.Version = defaultString(overrides.Version, clone.Version)
	clone.Icon = defaultString(overrides.Icon, clone.Icon)
	clone.Color = defaultString(overrides.Color, clone.Color)

	clone.Metadata.Author = defaultString(overrides.Author, clone.Metadata.Author)
	clone.Metadata.Description = defaultString(overrides.Description, clone.Metadata.Description)
	clone.Metadata.License = defaultString(overrides.License, clone.Metadata.License)
	if overrides.Keywords != nil {
		clone.Metadata.Keywords = append([]string(nil), overrides.Keywords...)
	}
	if overrides.Dependencies != nil {
		if clone.Metadata.Dependencies == nil {
			clone.Metadata.Dependencies = make(map[string]string, len(overrides.Dependencies))
		}
		for id, rng := range overrides.Dependencies {
			clone.Metadata.Dependencies[id] = rng
		}
	}

	if overrides.Achievements != nil {
		clone.Achievements = append([]types.Achievement(nil), overrides.Achievements...)
	}
	if overrides.Points != nil {
		clone.Points = overrides.Points
	}
	if overrides.Permissions != nil {
		clone.Permissions = append([]string(nil), overrides.Permissions...)
	}
	if overrides.Capabilities != nil {
		clone.Capabilities = append([]string(nil), overrides.Capabilities...)
	}

	if overrides.Components != nil {
		mergeComponents(&clone.Components, *overrides.Components)
	}
	if overrides.Hooks != nil {
		mergeHooks(&clone.Hooks, *overrides.Hooks)
	}

	result := f.validator.Validate(clone)
	if !result.Valid {
		return nil, &ValidationError{ModuleID: clone.ID, Errors: result.Errors}
	}

	return clone, nil
}

// deriveCloneID appends a copy suffix while keeping the 50-char id limit
func deriveCloneID(baseID string) string {
	const suffix = "_copy"
	if len(baseID)+len(suffix) > maxIDLength {
		baseID = baseID[:maxIDLength-len(suffix)]
	}
	return baseID + suffix
}

func mergeComponents(dst *types.Components, src types.Components) {
	if src.Dashboard != nil {
		dst.Dashboard = src.Dashboard
	}
	if src.Card != nil {
		dst.Card = src.Card
	}
	if src.Settings != nil {
		dst.Settings = src.Settings
	}
	if src.Widget != nil {
		dst.Widget = src.Widget
	}
}

func mergeHooks(dst *types.Hooks, src types.Hooks) {
	if src.Install != nil {
		dst.Install = src.Install
	}
	if src.Uninstall != nil {
		dst.Uninstall = src.Uninstall
	}
	if src.Enable != nil {
		dst.Enable = src.Enable
	}
	if src.Disable != nil {
		dst.Disable = src.Disable
	}
	if src.ConfigChange != nil {
		dst.ConfigChange = src.ConfigChange
	}
}
