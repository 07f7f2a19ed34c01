package manifest

import (
	"context"
	"strings"
	"testing"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

func noopHook(context.Context) error { return nil }

func placeholder() interface{} { return nil }

func validModule() *types.Module {
	return &types.Module{
		ID:      "fitness",
		Name:    "Fitness",
		Version: "1.0.0",
		Icon:    "dumbbell",
		Color:   "#22c55e",
		Metadata: types.Metadata{
			Author:           "Solstreak",
			Description:      "Track workouts and streaks",
			Keywords:         []string{"fitness", "health"},
			License:          "MIT",
			MinSystemVersion: "1.0.0",
		},
		Components: types.Components{
			Dashboard: placeholder,
			Card:      placeholder,
			Settings:  placeholder,
			Widget:    placeholder,
		},
		Hooks: types.Hooks{
			Install:   noopHook,
			Uninstall: noopHook,
			Enable:    noopHook,
			Disable:   noopHook,
		},
		Achievements: []types.Achievement{
			{
				ID:          "first_workout",
				Name:        "First Workout",
				Description: "Complete your first workout",
				Icon:        "medal",
				Tier:        types.TierBronze,
				XPReward:    50,
				Condition:   types.Condition{Type: types.ConditionCount, Target: 1},
			},
		},
		Points: &types.PointsConfig{
			BasePoints:  10,
			Multipliers: map[string]float64{"easy": 1, "medium": 1.5, "hard": 2, "epic": 3},
			StreakBonus: 0.1,
		},
		Permissions:  []string{"goals:read"},
		Capabilities: []string{"tracking"},
	}
}

func hasMessage(msgs []string, fragment string) bool {
	for _, m := range msgs {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

func TestValidateAcceptsWellFormedModule(t *testing.T) {
	result := NewValidator().Validate(validModule())
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateNilDescriptor(t *testing.T) {
	result := NewValidator().Validate(nil)
	if result.Valid || len(result.Errors) == 0 {
		t.Fatal("nil descriptor must be invalid, not panic")
	}
}

func TestValidateIDFormat(t *testing.T) {
	cases := []struct {
		id       string
		fragment string
	}{
		{"", "id is required"},
		{"X", "2-50 characters"},
		{"Fitness", "lowercase"},
		{"9lives", "start with a letter"},
		{"has-dash", "letters, digits or underscores"},
		{"admin", "reserved"},
		{strings.Repeat("a", 51), "2-50 characters"},
	}
	for _, tc := range cases {
		m := validModule()
		m.ID = tc.id
		result := NewValidator().Validate(m)
		if result.Valid {
			t.Errorf("id %q should be rejected", tc.id)
			continue
		}
		// Every shape failure reports the same formatting message
		if !hasMessage(result.Errors, "id") {
			t.Errorf("id %q: expected an id error, got %v", tc.id, result.Errors)
		}
	}
}

func TestValidateVersionAndColor(t *testing.T) {
	m := validModule()
	m.Version = "1.2"
	m.Color = "#12345"
	result := NewValidator().Validate(m)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if !hasMessage(result.Errors, "semantic version") {
		t.Errorf("missing version error: %v", result.Errors)
	}
	if !hasMessage(result.Errors, "color") {
		t.Errorf("missing color error: %v", result.Errors)
	}

	m = validModule()
	m.Color = "emerald"
	if result := NewValidator().Validate(m); !result.Valid {
		t.Errorf("named color should be accepted: %v", result.Errors)
	}
}

func TestValidateMissingHooksAndComponents(t *testing.T) {
	m := validModule()
	m.Hooks.Enable = nil
	m.Components.Widget = nil
	result := NewValidator().Validate(m)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if !hasMessage(result.Errors, `hook "enable"`) {
		t.Errorf("missing hook error: %v", result.Errors)
	}
	if !hasMessage(result.Errors, `component "widget"`) {
		t.Errorf("missing component error: %v", result.Errors)
	}
}

func TestValidateAchievementConditions(t *testing.T) {
	m := validModule()
	m.Achievements = append(m.Achievements,
		types.Achievement{
			ID: "bad_streak", Name: "n", Description: "d", Icon: "i",
			Tier: types.TierGold, XPReward: 10,
			Condition: types.Condition{Type: types.ConditionStreak},
		},
		types.Achievement{
			ID: "bad_custom", Name: "n", Description: "d", Icon: "i",
			Tier: types.TierSilver, XPReward: 10,
			Condition: types.Condition{Type: types.ConditionCustom},
		},
		types.Achievement{
			ID: "bad_tier", Name: "n", Description: "d", Icon: "i",
			Tier: "diamond", XPReward: -5,
			Condition: types.Condition{Type: types.ConditionCompletion},
		},
	)
	result := NewValidator().Validate(m)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	for _, fragment := range []string{"positive numeric target", "validator reference", "tier", "non-negative"} {
		if !hasMessage(result.Errors, fragment) {
			t.Errorf("expected error containing %q, got %v", fragment, result.Errors)
		}
	}
}

func TestValidateCustomConditionAgainstRegistry(t *testing.T) {
	reg := NewConditionRegistry()
	reg.Register("perfect_week", func(map[string]interface{}, map[string]float64) bool { return false })

	m := validModule()
	m.Achievements[0].Condition = types.Condition{Type: types.ConditionCustom, Validator: "perfect_week"}
	if result := NewValidatorWithConditions(reg).Validate(m); !result.Valid {
		t.Errorf("registered validator should pass: %v", result.Errors)
	}

	m.Achievements[0].Condition.Validator = "missing_checker"
	result := NewValidatorWithConditions(reg).Validate(m)
	if result.Valid || !hasMessage(result.Errors, "unknown validator") {
		t.Errorf("unregistered validator should fail: %v", result.Errors)
	}
}

func TestValidateWarnings(t *testing.T) {
	m := validModule()
	m.Metadata.Keywords = nil
	m.Metadata.Homepage = "not a url"
	m.Points.Multipliers = map[string]float64{"easy": 1}
	m.Permissions = nil
	result := NewValidator().Validate(m)
	if !result.Valid {
		t.Fatalf("warnings must not block: %v", result.Errors)
	}
	for _, fragment := range []string{"keywords", "homepage", `"medium" difficulty`, "permissions"} {
		if !hasMessage(result.Warnings, fragment) {
			t.Errorf("expected warning containing %q, got %v", fragment, result.Warnings)
		}
	}
}

func TestConditionRegistryBuiltins(t *testing.T) {
	reg := NewConditionRegistry()
	for _, name := range []string{"count", "streak", "completion"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("expected built-in checker %q", name)
		}
	}

	count, _ := reg.Lookup("count")
	if !count(map[string]interface{}{"target": 3.0}, map[string]float64{"count": 5}) {
		t.Error("count checker should fire at target")
	}
	if count(map[string]interface{}{"target": 3.0}, map[string]float64{"count": 2}) {
		t.Error("count checker should not fire below target")
	}
}
