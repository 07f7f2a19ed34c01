package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/domain/registry"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
	"github.com/solstreakhq/solstreak/backend/internal/storage"
)

const habitsSeed = `id: habits
name: Habit Tracker
version: 1.2.0
author: Solstreak Team
description: Daily habit tracking with streaks
keywords: [habits, streaks]
`

const streaksSeed = `id: streaks
name: Streak Booster
version: 1.0.0
author: Solstreak Team
description: Bonus multipliers for long streaks
keywords: [streaks, bonus]
dependencies:
  habits: ^1.0.0
`

func writeSeeds(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "habits.yaml"), []byte(habitsSeed), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "streaks.yaml"), []byte(streaksSeed), 0o644))
}

func newStack(t *testing.T, storageDir, seedDir string) (*registry.Manager, *registry.Seeder) {
	t.Helper()
	store, err := storage.NewFileStore(storageDir)
	require.NoError(t, err)

	validator := manifest.NewValidatorWithConditions(manifest.NewConditionRegistry())
	f := factory.New(validator, nil)
	manager := registry.NewManager(store, validator, nil)
	seeder := registry.NewSeeder(manager, f, seedDir, true, nil)
	manager.WithLoader(seeder.Loader())
	return manager, seeder
}

func TestSeedAndRestartCycle(t *testing.T) {
	ctx := context.Background()
	storageDir := t.TempDir()
	seedDir := t.TempDir()
	writeSeeds(t, seedDir)

	manager, seeder := newStack(t, storageDir, seedDir)
	require.True(t, manager.Initialize(ctx).Success)

	loaded, failed := seeder.SeedModules(ctx)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 0, failed)

	state, ok := manager.GetModuleState("streaks")
	require.True(t, ok)
	assert.Equal(t, types.StatusEnabled, state.Status)
	assert.Equal(t, []string{"habits"}, state.Dependencies)

	// Config survives the restart below.
	result := manager.UpdateConfig(ctx, "habits", map[string]interface{}{"reminder_hour": 8})
	require.True(t, result.Success, result.Error)

	// Simulate a process restart over the same storage directory.
	restarted, _ := newStack(t, storageDir, seedDir)
	init := restarted.Initialize(ctx)
	require.True(t, init.Success, init.Error)
	assert.Equal(t, 2, init.Data["loaded"])

	state, ok = restarted.GetModuleState("habits")
	require.True(t, ok)
	assert.Equal(t, types.StatusEnabled, state.Status)
	assert.EqualValues(t, 8, state.Config["reminder_hour"])

	stats := restarted.GetStatistics()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Enabled)
}

func TestDependencyOrderingAcrossLifecycle(t *testing.T) {
	ctx := context.Background()
	seedDir := t.TempDir()
	writeSeeds(t, seedDir)

	manager, seeder := newStack(t, t.TempDir(), seedDir)
	require.True(t, manager.Initialize(ctx).Success)
	seeder.SeedModules(ctx)

	// The dependency cannot be turned off or removed while the
	// dependent needs it.
	assert.False(t, manager.Disable(ctx, "habits").Success)
	assert.False(t, manager.Unregister(ctx, "habits").Success)

	require.True(t, manager.Disable(ctx, "streaks").Success)
	require.True(t, manager.Disable(ctx, "habits").Success)

	assert.False(t, manager.Enable(ctx, "streaks").Success)
	require.True(t, manager.Enable(ctx, "habits").Success)
	require.True(t, manager.Enable(ctx, "streaks").Success)

	require.True(t, manager.Disable(ctx, "streaks").Success)
	require.True(t, manager.Unregister(ctx, "streaks").Success)
	require.True(t, manager.Unregister(ctx, "habits").Success)
	assert.Zero(t, manager.GetStatistics().Total)
}

func TestEventStreamDuringSeeding(t *testing.T) {
	ctx := context.Background()
	seedDir := t.TempDir()
	writeSeeds(t, seedDir)

	manager, seeder := newStack(t, t.TempDir(), seedDir)

	var kinds []registry.EventKind
	manager.Subscribe(registry.EventAny, func(e registry.Event) {
		kinds = append(kinds, e.Kind)
	})

	require.True(t, manager.Initialize(ctx).Success)
	seeder.SeedModules(ctx)

	// Two modules, each installing then enabling.
	assert.Len(t, kinds, 8)
	assert.Equal(t, registry.EventInstalling, kinds[0])
	assert.Equal(t, registry.EventEnabled, kinds[3])
}
