package factory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Default cosmetic and gamification values applied when a config omits
// the optional fields.
const (
	DefaultIcon             = "sparkles"
	DefaultColor            = "#6366f1"
	DefaultLicense          = "MIT"
	DefaultMinSystemVersion = "1.0.0"
	DefaultBasePoints       = 10
	DefaultStreakBonus      = 0.1

	maxIDLength = 50
)

// Config is the raw material a module descriptor is built from. Hooks
// and components are optional; omitted ones get logging no-ops and
// placeholder panels.
type Config struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Icon    string `json:"icon,omitempty" yaml:"icon"`
	Color   string `json:"color,omitempty" yaml:"color"`

	Author           string            `json:"author,omitempty" yaml:"author"`
	Description      string            `json:"description,omitempty" yaml:"description"`
	Keywords         []string          `json:"keywords,omitempty" yaml:"keywords"`
	License          string            `json:"license,omitempty" yaml:"license"`
	Homepage         string            `json:"homepage,omitempty" yaml:"homepage"`
	Repository       string            `json:"repository,omitempty" yaml:"repository"`
	MinSystemVersion string            `json:"min_system_version,omitempty" yaml:"min_system_version"`
	Dependencies     map[string]string `json:"dependencies,omitempty" yaml:"dependencies"`

	Achievements []types.Achievement `json:"achievements,omitempty" yaml:"achievements"`
	Points       *types.PointsConfig `json:"points,omitempty" yaml:"points"`
	Permissions  []string            `json:"permissions,omitempty" yaml:"permissions"`
	Capabilities []string            `json:"capabilities,omitempty" yaml:"capabilities"`

	Components types.Components `json:"-" yaml:"-"`
	Hooks      types.Hooks      `json:"-" yaml:"-"`
}

// StructuralError reports a config too malformed to assemble
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("module config %s: %s", e.Field, e.Reason)
}

// ValidationError carries the validator's full error list
type ValidationError struct {
	ModuleID string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("module %q failed validation: %s", e.ModuleID, strings.Join(e.Errors, "; "))
}

// Factory builds module descriptors
type Factory struct {
	validator *manifest.Validator
	logger    *zap.Logger
}

// New creates a factory validating against validator. A nil logger
// falls back to a no-op.
func New(validator *manifest.Validator, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{validator: validator, logger: logger}
}

// CreateModule assembles a descriptor from cfg, applying defaults, then
// validates it. Structural failures short-circuit before validation.
func (f *Factory) CreateModule(cfg Config) (*types.Module, error) {
	if err := f.checkShape(cfg); err != nil {
		return nil, err
	}

	m := &types.Module{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Version: cfg.Version,
		Icon:    defaultString(cfg.Icon, DefaultIcon),
		Color:   defaultString(cfg.Color, DefaultColor),
		Metadata: types.Metadata{
			Author:           cfg.Author,
			Description:      cfg.Description,
			Keywords:         append([]string(nil), cfg.Keywords...),
			License:          defaultString(cfg.License, DefaultLicense),
			Homepage:         cfg.Homepage,
			Repository:       cfg.Repository,
			MinSystemVersion: defaultString(cfg.MinSystemVersion, DefaultMinSystemVersion),
			Dependencies:     types.CloneStringMap(cfg.Dependencies),
		},
		Components:   f.withDefaultComponents(cfg.ID, cfg.Components),
		Hooks:        f.withDefaultHooks(cfg.ID, cfg.Hooks),
		Achievements: append([]types.Achievement(nil), cfg.Achievements...),
		Points:       cfg.Points,
		Permissions:  cfg.Permissions,
		Capabilities: cfg.Capabilities,
	}

	if m.Points == nil {
		m.Points = DefaultPoints()
	}
	if m.Achievements == nil {
		m.Achievements = []types.Achievement{}
	}
	if m.Permissions == nil {
		m.Permissions = []string{}
	}
	if m.Capabilities == nil {
		m.Capabilities = []string{}
	}

	result := f.validator.Validate(m)
	if !result.Valid {
		return nil, &ValidationError{ModuleID: cfg.ID, Errors: result.Errors}
	}
	for _, w := range result.Warnings {
		f.logger.Warn("module manifest warning", zap.String("module", cfg.ID), zap.String("warning", w))
	}

	return m, nil
}

// DefaultPoints returns the baseline points configuration: four
// difficulty multipliers {1, 1.5, 2, 3} and a 10% streak bonus.
func DefaultPoints() *types.PointsConfig {
	return &types.PointsConfig{
		BasePoints: DefaultBasePoints,
		Multipliers: map[string]float64{
			"easy":   1,
			"medium": 1.5,
			"hard":   2,
			"epic":   3,
		},
		StreakBonus: DefaultStreakBonus,
	}
}

func (f *Factory) checkShape(cfg Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return &StructuralError{Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return &StructuralError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(cfg.Version) == "" {
		return &StructuralError{Field: "version", Reason: "must not be empty"}
	}
	return nil
}

// withDefaultHooks fills absent hooks with no-ops that only log their
// invocation, so a content-only module still moves through the
// lifecycle cleanly.
func (f *Factory) withDefaultHooks(id string, hooks types.Hooks) types.Hooks {
	logHook := func(phase string) types.HookFunc {
		return func(ctx context.Context) error {
			f.logger.Info("module lifecycle hook", zap.String("module", id), zap.String("phase", phase))
			return nil
		}
	}
	if hooks.Install == nil {
		hooks.Install = logHook("install")
	}
	if hooks.Uninstall == nil {
		hooks.Uninstall = logHook("uninstall")
	}
	if hooks.Enable == nil {
		hooks.Enable = logHook("enable")
	}
	if hooks.Disable == nil {
		hooks.Disable = logHook("disable")
	}
	return hooks
}

// withDefaultComponents fills absent entry points with placeholder
// panel descriptors the frontend renders as "coming soon".
func (f *Factory) withDefaultComponents(id string, c types.Components) types.Components {
	placeholder := func(kind string) types.ComponentFunc {
		return func() interface{} {
			return map[string]interface{}{"module": id, "component": kind, "placeholder": true}
		}
	}
	if c.Dashboard == nil {
		c.Dashboard = placeholder("dashboard")
	}
	if c.Card == nil {
		c.Card = placeholder("card")
	}
	if c.Settings == nil {
		c.Settings = placeholder("settings")
	}
	if c.Widget == nil {
		c.Widget = placeholder("widget")
	}
	return c
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
