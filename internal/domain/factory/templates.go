package factory

import (
	"fmt"

	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// CreateTemplate returns a pre-populated config for a known starter
// kind. Templates are scaffolding only: they carry no hooks or
// components, so the factory defaults apply when one is materialized.
func CreateTemplate(kind string) (Config, error) {
	switch kind {
	case "fitness":
		return Config{
			ID:          "fitness",
			Name:        "Fitness",
			Version:     "1.0.0",
			Icon:        "dumbbell",
			Color:       "#22c55e",
			Author:      "Solstreak",
			Description: "Track workouts, personal records and training streaks",
			Keywords:    []string{"fitness", "health", "workout"},
			Achievements: []types.Achievement{
				{
					ID:          "first_workout",
					Name:        "First Workout",
					Description: "Log your first workout",
					Icon:        "medal",
					Tier:        types.TierBronze,
					XPReward:    50,
					Condition:   types.Condition{Type: types.ConditionCount, Target: 1},
				},
				{
					ID:          "week_streak",
					Name:        "Week Streak",
					Description: "Train seven days in a row",
					Icon:        "flame",
					Tier:        types.TierSilver,
					XPReward:    150,
					Condition:   types.Condition{Type: types.ConditionStreak, Target: 7},
				},
				{
					ID:          "program_complete",
					Name:        "Program Complete",
					Description: "Finish a full training program",
					Icon:        "trophy",
					Tier:        types.TierGold,
					XPReward:    500,
					Condition:   types.Condition{Type: types.ConditionCompletion},
				},
			},
			Permissions:  []string{"goals:read", "goals:write"},
			Capabilities: []string{"tracking", "streaks"},
		}, nil

	case "reading":
		return Config{
			ID:          "reading",
			Name:        "Reading",
			Version:     "1.0.0",
			Icon:        "book-open",
			Color:       "#f59e0b",
			Author:      "Solstreak",
			Description: "Track books, pages read and reading streaks",
			Keywords:    []string{"reading", "books"},
			Achievements: []types.Achievement{
				{
					ID:          "first_book",
					Name:        "First Book",
					Description: "Finish your first book",
					Icon:        "bookmark",
					Tier:        types.TierBronze,
					XPReward:    100,
					Condition:   types.Condition{Type: types.ConditionCount, Target: 1},
				},
			},
			Permissions:  []string{"goals:read", "goals:write"},
			Capabilities: []string{"tracking"},
		}, nil

	case "habits":
		return Config{
			ID:          "habits",
			Name:        "Habits",
			Version:     "1.0.0",
			Icon:        "repeat",
			Color:       "#8b5cf6",
			Author:      "Solstreak",
			Description: "Build daily habits with streak tracking",
			Keywords:    []string{"habits", "routine"},
			Achievements: []types.Achievement{
				{
					ID:          "habit_streak",
					Name:        "Consistency",
					Description: "Keep a habit for 21 days",
					Icon:        "calendar-check",
					Tier:        types.TierGold,
					XPReward:    300,
					Condition:   types.Condition{Type: types.ConditionStreak, Target: 21},
				},
			},
			Permissions:  []string{"goals:read", "goals:write"},
			Capabilities: []string{"tracking", "streaks"},
		}, nil

	default:
		return Config{}, fmt.Errorf("unknown module template %q", kind)
	}
}

// TemplateKinds lists the starter kinds CreateTemplate understands
func TemplateKinds() []string {
	return []string{"fitness", "reading", "habits"}
}
