package manifest

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/solstreakhq/solstreak/backend/internal/shared/semver"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Result carries the outcome of a validation pass
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Module ids: lowercase, start with a letter, letters/digits/underscore,
// 2-50 chars total.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// reservedIDs collide with route mounting and filter keywords
var reservedIDs = map[string]bool{
	"system":   true,
	"core":     true,
	"admin":    true,
	"module":   true,
	"registry": true,
	"all":      true,
	"none":     true,
}

// namedColors the frontend theme understands without a hex value
var namedColors = map[string]bool{
	"red": true, "orange": true, "amber": true, "yellow": true,
	"lime": true, "green": true, "emerald": true, "teal": true,
	"cyan": true, "sky": true, "blue": true, "indigo": true,
	"violet": true, "purple": true, "pink": true, "rose": true,
	"gold": true, "silver": true, "bronze": true, "slate": true,
}

var validTiers = map[types.Tier]bool{
	types.TierBronze:   true,
	types.TierSilver:   true,
	types.TierGold:     true,
	types.TierPlatinum: true,
}

// Validator checks module descriptors. When constructed with a condition
// registry, custom achievement conditions must reference a registered
// checker; without one only the reference's presence is checked.
type Validator struct {
	conditions *ConditionRegistry
}

// NewValidator creates a validator without custom-condition resolution
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithConditions creates a validator that resolves custom
// condition references against reg.
func NewValidatorWithConditions(reg *ConditionRegistry) *Validator {
	return &Validator{conditions: reg}
}

// Validate runs every check against the candidate descriptor
func (v *Validator) Validate(m *types.Module) Result {
	var errs, warns []string

	if m == nil {
		return Result{Valid: false, Errors: []string{"module descriptor is nil"}}
	}

	errs = append(errs, v.checkIdentity(m)...)
	errs = append(errs, v.checkMetadata(m)...)
	errs = append(errs, v.checkComponents(m)...)
	errs = append(errs, v.checkHooks(m)...)
	errs = append(errs, v.checkAchievements(m)...)
	warns = append(warns, v.collectWarnings(m)...)

	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func (v *Validator) checkIdentity(m *types.Module) []string {
	var errs []string

	switch {
	case m.ID == "":
		errs = append(errs, "module id is required")
	case !idPattern.MatchString(m.ID):
		errs = append(errs, fmt.Sprintf("module id %q must be lowercase, start with a letter, contain only letters, digits or underscores, and be 2-50 characters", m.ID))
	case reservedIDs[m.ID]:
		errs = append(errs, fmt.Sprintf("module id %q is reserved", m.ID))
	}

	if m.Name == "" {
		errs = append(errs, "module name is required")
	}

	if m.Version == "" {
		errs = append(errs, "module version is required")
	} else if !semver.IsValid(m.Version) {
		errs = append(errs, fmt.Sprintf("module version %q is not a valid semantic version", m.Version))
	}

	if m.Icon == "" {
		errs = append(errs, "module icon is required")
	}

	switch {
	case m.Color == "":
		errs = append(errs, "module color is required")
	case !hexColorPattern.MatchString(m.Color) && !namedColors[strings.ToLower(m.Color)]:
		errs = append(errs, fmt.Sprintf("module color %q must be a hex value or a recognized color name", m.Color))
	}

	return errs
}

func (v *Validator) checkMetadata(m *types.Module) []string {
	var errs []string

	if m.Metadata.Author == "" {
		errs = append(errs, "metadata author is required")
	}
	if m.Metadata.Description == "" {
		errs = append(errs, "metadata description is required")
	}
	if m.Metadata.License == "" {
		errs = append(errs, "metadata license is required")
	}
	if !semver.IsValid(m.Metadata.MinSystemVersion) {
		errs = append(errs, fmt.Sprintf("metadata min_system_version %q is not a valid semantic version", m.Metadata.MinSystemVersion))
	}

	return errs
}

func (v *Validator) checkComponents(m *types.Module) []string {
	var errs []string
	for name, fn := range map[string]types.ComponentFunc{
		"dashboard": m.Components.Dashboard,
		"card":      m.Components.Card,
		"settings":  m.Components.Settings,
		"widget":    m.Components.Widget,
	} {
		if fn == nil {
			errs = append(errs, fmt.Sprintf("component %q is required", name))
		}
	}
	return sorted(errs)
}

func (v *Validator) checkHooks(m *types.Module) []string {
	var errs []string
	for name, fn := range map[string]types.HookFunc{
		"install":   m.Hooks.Install,
		"uninstall": m.Hooks.Uninstall,
		"enable":    m.Hooks.Enable,
		"disable":   m.Hooks.Disable,
	} {
		if fn == nil {
			errs = append(errs, fmt.Sprintf("lifecycle hook %q is required", name))
		}
	}
	return sorted(errs)
}

func (v *Validator) checkAchievements(m *types.Module) []string {
	var errs []string

	for i, a := range m.Achievements {
		label := a.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("achievement %s: id is required", label))
		}
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("achievement %s: name is required", label))
		}
		if a.Description == "" {
			errs = append(errs, fmt.Sprintf("achievement %s: description is required", label))
		}
		if a.Icon == "" {
			errs = append(errs, fmt.Sprintf("achievement %s: icon is required", label))
		}
		if !validTiers[a.Tier] {
			errs = append(errs, fmt.Sprintf("achievement %s: tier %q must be one of bronze, silver, gold, platinum", label, a.Tier))
		}
		if a.XPReward < 0 {
			errs = append(errs, fmt.Sprintf("achievement %s: xp reward must be a non-negative integer", label))
		}

		errs = append(errs, v.checkCondition(label, a.Condition)...)
	}

	return errs
}

func (v *Validator) checkCondition(label string, c types.Condition) []string {
	var errs []string

	switch c.Type {
	case types.ConditionCount, types.ConditionStreak:
		if c.Target <= 0 {
			errs = append(errs, fmt.Sprintf("achievement %s: %s condition requires a positive numeric target", label, c.Type))
		}
	case types.ConditionCompletion:
		// no extra fields
	case types.ConditionCustom:
		if c.Validator == "" {
			errs = append(errs, fmt.Sprintf("achievement %s: custom condition requires a validator reference", label))
		} else if v.conditions != nil {
			if _, ok := v.conditions.Lookup(c.Validator); !ok {
				errs = append(errs, fmt.Sprintf("achievement %s: custom condition references unknown validator %q", label, c.Validator))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("achievement %s: condition type %q must be one of count, streak, completion, custom", label, c.Type))
	}

	return errs
}

func (v *Validator) collectWarnings(m *types.Module) []string {
	var warns []string

	if len(m.Metadata.Keywords) == 0 {
		warns = append(warns, "metadata keywords are empty; module will be hard to discover")
	}
	if m.Metadata.Homepage != "" && !isHTTPURL(m.Metadata.Homepage) {
		warns = append(warns, fmt.Sprintf("metadata homepage %q is not a valid http(s) URL", m.Metadata.Homepage))
	}
	if m.Metadata.Repository != "" && !isHTTPURL(m.Metadata.Repository) {
		warns = append(warns, fmt.Sprintf("metadata repository %q is not a valid http(s) URL", m.Metadata.Repository))
	}

	if m.Points == nil {
		warns = append(warns, "points configuration is missing; baseline defaults will apply")
	} else {
		for _, level := range types.DifficultyLevels {
			if _, ok := m.Points.Multipliers[level]; !ok {
				warns = append(warns, fmt.Sprintf("points configuration is missing a %q difficulty multiplier", level))
			}
		}
	}

	if m.Permissions == nil {
		warns = append(warns, "permissions list is not set")
	}
	if m.Capabilities == nil {
		warns = append(warns, "capabilities list is not set")
	}

	return warns
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// sorted keeps map-iteration-derived messages deterministic
func sorted(s []string) []string {
	sort.Strings(s)
	return s
}
