package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
	"github.com/solstreakhq/solstreak/backend/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	return NewManager(store, manifest.NewValidator(), nil), store
}

func buildModule(t *testing.T, id, version string, deps map[string]string, hooks types.Hooks) *types.Module {
	t.Helper()
	f := factory.New(manifest.NewValidator(), nil)
	mod, err := f.CreateModule(factory.Config{
		ID:           id,
		Name:         "Test " + id,
		Version:      version,
		Author:       "Solstreak Team",
		Description:  "test module " + id,
		Dependencies: deps,
		Hooks:        hooks,
	})
	if err != nil {
		t.Fatalf("failed to build module %s: %v", id, err)
	}
	return mod
}

func TestRegisterInstallsAndPersists(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	result := m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{})
	if !result.Success {
		t.Fatalf("register failed: %s", result.Error)
	}

	state, ok := m.GetModuleState("fitness")
	if !ok || state.Status != types.StatusInstalled {
		t.Fatalf("expected installed state, got %+v", state)
	}

	records, _ := store.ListInstalled()
	if len(records) != 1 || records[0].ID != "fitness" || records[0].IsEnabled {
		t.Fatalf("unexpected persisted records: %+v", records)
	}
}

func TestRegisterAutoEnable(t *testing.T) {
	m, store := newTestManager(t)

	result := m.Register(context.Background(), buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}),
		types.RegisterOptions{AutoEnable: true})
	if !result.Success {
		t.Fatalf("register failed: %s", result.Error)
	}

	state, _ := m.GetModuleState("fitness")
	if state.Status != types.StatusEnabled {
		t.Errorf("expected enabled, got %s", state.Status)
	}
	records, _ := store.ListInstalled()
	if !records[0].IsEnabled {
		t.Error("enabled flag not persisted")
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{})
	result := m.Register(ctx, buildModule(t, "fitness", "2.0.0", nil, types.Hooks{}), types.RegisterOptions{})
	if result.Success {
		t.Fatal("duplicate register must fail")
	}
	if !strings.Contains(result.Error, "already registered") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestRegisterMissingDependencyRejected(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	result := m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^1.0.0"}, types.Hooks{}),
		types.RegisterOptions{})
	if result.Success {
		t.Fatal("register with missing dependency must fail")
	}
	if !strings.Contains(result.Error, `dependency "habits" is not installed`) {
		t.Errorf("unexpected error: %s", result.Error)
	}
	if records, _ := store.ListInstalled(); len(records) != 0 {
		t.Error("nothing should be persisted on rejection")
	}

	// The escape hatch registers anyway.
	result = m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^1.0.0"}, types.Hooks{}),
		types.RegisterOptions{SkipDependencyCheck: true})
	if !result.Success {
		t.Fatalf("skip-check register failed: %s", result.Error)
	}
}

func TestRegisterVersionConflictRejected(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "habits", "1.2.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})

	result := m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^2.0.0"}, types.Hooks{}),
		types.RegisterOptions{})
	if result.Success {
		t.Fatal("incompatible version must be rejected")
	}
	if !strings.Contains(result.Error, "does not satisfy required range") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestRegisterInstallHookFailureLeavesNoTrace(t *testing.T) {
	m, store := newTestManager(t)

	hooks := types.Hooks{Install: func(ctx context.Context) error {
		return errors.New("disk full")
	}}
	result := m.Register(context.Background(), buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{})
	if result.Success {
		t.Fatal("register must fail when install hook errors")
	}
	if _, ok := m.GetModuleState("fitness"); ok {
		t.Error("failed install must not leave state behind")
	}
	if records, _ := store.ListInstalled(); len(records) != 0 {
		t.Error("failed install must not persist a record")
	}
}

func TestRegisterInstallHookPanicIsCaptured(t *testing.T) {
	m, _ := newTestManager(t)

	hooks := types.Hooks{Install: func(ctx context.Context) error { panic("boom") }}
	result := m.Register(context.Background(), buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{})
	if result.Success {
		t.Fatal("panicking install hook must fail the registration")
	}
	if !strings.Contains(result.Error, "panic in install hook") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestRegisterPersistFailure(t *testing.T) {
	m, store := newTestManager(t)
	store.FailSave = errors.New("backend down")

	result := m.Register(context.Background(), buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{})
	if result.Success {
		t.Fatal("register must fail when persistence fails")
	}
	if _, ok := m.GetModuleState("fitness"); ok {
		t.Error("failed persistence must not leave state behind")
	}
}

func TestEnableRequiresEnabledDependencies(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "habits", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})
	m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^1.0.0"}, types.Hooks{}),
		types.RegisterOptions{AutoEnable: true})

	// Disabling the dependency is blocked while the dependent is on.
	result := m.Disable(ctx, "habits")
	if result.Success {
		t.Fatal("disable must be blocked by an enabled dependent")
	}
	if !strings.Contains(result.Error, "streaks") {
		t.Errorf("blocker should be named: %s", result.Error)
	}

	// Dependent first, then the dependency.
	if result := m.Disable(ctx, "streaks"); !result.Success {
		t.Fatalf("disable streaks failed: %s", result.Error)
	}
	if result := m.Disable(ctx, "habits"); !result.Success {
		t.Fatalf("disable habits failed: %s", result.Error)
	}

	// Re-enabling the dependent needs the dependency on again.
	result = m.Enable(ctx, "streaks")
	if result.Success {
		t.Fatal("enable must be blocked while dependency is disabled")
	}
	if result := m.Enable(ctx, "habits"); !result.Success {
		t.Fatalf("enable habits failed: %s", result.Error)
	}
	if result := m.Enable(ctx, "streaks"); !result.Success {
		t.Fatalf("enable streaks failed: %s", result.Error)
	}
}

func TestEnableDisableIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})
	if result := m.Enable(ctx, "fitness"); !result.Success {
		t.Errorf("enable of enabled module must be a no-op success: %s", result.Error)
	}
	m.Disable(ctx, "fitness")
	if result := m.Disable(ctx, "fitness"); !result.Success {
		t.Errorf("disable of disabled module must be a no-op success: %s", result.Error)
	}
}

func TestEnableHookFailureMovesToErrorState(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	hooks := types.Hooks{Enable: func(ctx context.Context) error {
		return errors.New("migration failed")
	}}
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{})

	result := m.Enable(ctx, "fitness")
	if result.Success {
		t.Fatal("enable must fail when hook errors")
	}

	state, _ := m.GetModuleState("fitness")
	if state.Status != types.StatusError {
		t.Errorf("expected error status, got %s", state.Status)
	}
	if !strings.Contains(state.LastError, "migration failed") {
		t.Errorf("last error not captured: %q", state.LastError)
	}
}

func TestUnregisterBlockedByDependent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "habits", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})
	m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^1.0.0"}, types.Hooks{}),
		types.RegisterOptions{})

	// Even a merely installed dependent blocks removal.
	result := m.Unregister(ctx, "habits")
	if result.Success {
		t.Fatal("unregister must be blocked by a registered dependent")
	}

	if result := m.Unregister(ctx, "streaks"); !result.Success {
		t.Fatalf("unregister streaks failed: %s", result.Error)
	}
	if result := m.Unregister(ctx, "habits"); !result.Success {
		t.Fatalf("unregister habits failed: %s", result.Error)
	}
	if stats := m.GetStatistics(); stats.Total != 0 {
		t.Errorf("registry should be empty, got %+v", stats)
	}
}

func TestUnregisterDisablesFirst(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	var phases []string
	hooks := types.Hooks{
		Disable:   func(ctx context.Context) error { phases = append(phases, "disable"); return nil },
		Uninstall: func(ctx context.Context) error { phases = append(phases, "uninstall"); return nil },
	}
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{AutoEnable: true})

	if result := m.Unregister(ctx, "fitness"); !result.Success {
		t.Fatalf("unregister failed: %s", result.Error)
	}
	if len(phases) != 2 || phases[0] != "disable" || phases[1] != "uninstall" {
		t.Errorf("expected disable then uninstall, got %v", phases)
	}
	if records, _ := store.ListInstalled(); len(records) != 0 {
		t.Error("record should be removed")
	}
}

func TestUnregisterErrorStateSkipsHooks(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	hooks := types.Hooks{
		Enable:    func(ctx context.Context) error { return errors.New("broken") },
		Uninstall: func(ctx context.Context) error { t.Fatal("uninstall hook must not run for error-state module"); return nil },
	}
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{})
	m.Enable(ctx, "fitness")

	state, _ := m.GetModuleState("fitness")
	if state.Status != types.StatusError {
		t.Fatalf("setup: expected error state, got %s", state.Status)
	}
	if result := m.Unregister(ctx, "fitness"); !result.Success {
		t.Fatalf("unregister of error-state module failed: %s", result.Error)
	}
}

func TestUpdateConfig(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	var gotOld, gotNew map[string]interface{}
	hooks := types.Hooks{ConfigChange: func(ctx context.Context, oldCfg, newCfg map[string]interface{}) error {
		gotOld, gotNew = oldCfg, newCfg
		return nil
	}}
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, hooks),
		types.RegisterOptions{Config: map[string]interface{}{"units": "metric"}})

	result := m.UpdateConfig(ctx, "fitness", map[string]interface{}{"units": "imperial"})
	if !result.Success {
		t.Fatalf("update config failed: %s", result.Error)
	}
	if gotOld["units"] != "metric" || gotNew["units"] != "imperial" {
		t.Errorf("hook saw old=%v new=%v", gotOld, gotNew)
	}

	records, _ := store.ListInstalled()
	if records[0].Config["units"] != "imperial" {
		t.Error("config not persisted")
	}
	state, _ := m.GetModuleState("fitness")
	if state.Config["units"] != "imperial" {
		t.Error("state config not updated")
	}
}

func TestUpdateConfigHookFailure(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	hooks := types.Hooks{ConfigChange: func(ctx context.Context, oldCfg, newCfg map[string]interface{}) error {
		return errors.New("rejected by module")
	}}
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, hooks), types.RegisterOptions{})

	result := m.UpdateConfig(ctx, "fitness", map[string]interface{}{"units": "imperial"})
	if result.Success {
		t.Fatal("update must fail when hook rejects")
	}
	state, _ := m.GetModuleState("fitness")
	if state.Status != types.StatusError || !strings.Contains(state.LastError, "rejected by module") {
		t.Errorf("expected error state with captured message, got %+v", state)
	}
}

func TestInitializeRehydratesFromStore(t *testing.T) {
	store := storage.NewMemStore()
	store.Save(&types.ModuleRecord{ID: "habits", Name: "Habits", Version: "1.0.0", IsInstalled: true, IsEnabled: true})
	store.Save(&types.ModuleRecord{ID: "fitness", Name: "Fitness", Version: "1.0.0", IsInstalled: true})
	store.Save(&types.ModuleRecord{ID: "ghost", Name: "Ghost", Version: "1.0.0", IsInstalled: true})

	m := NewManager(store, manifest.NewValidator(), nil).
		WithLoader(func(record *types.ModuleRecord) (*types.Module, error) {
			if record.ID == "ghost" {
				return nil, errors.New("manifest missing")
			}
			return buildModule(t, record.ID, record.Version, nil, types.Hooks{}), nil
		})

	result := m.Initialize(context.Background())
	if !result.Success {
		t.Fatalf("initialize failed: %s", result.Error)
	}
	if result.Data["loaded"] != 2 || result.Data["failed"] != 1 {
		t.Errorf("unexpected counts: %v", result.Data)
	}

	if state, _ := m.GetModuleState("habits"); state.Status != types.StatusEnabled {
		t.Errorf("habits should rehydrate enabled, got %s", state.Status)
	}
	if state, _ := m.GetModuleState("fitness"); state.Status != types.StatusInstalled {
		t.Errorf("fitness should rehydrate installed, got %s", state.Status)
	}
	state, ok := m.GetModuleState("ghost")
	if !ok || state.Status != types.StatusError || state.LastError == "" {
		t.Errorf("ghost should land in error state, got %+v", state)
	}

	// Second call is a no-op.
	if result := m.Initialize(context.Background()); !result.Success {
		t.Errorf("repeat initialize failed: %s", result.Error)
	}
}

func TestQueriesAndStatistics(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "habits", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})
	m.Register(ctx, buildModule(t, "fitness", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{})

	all := m.GetModules(types.Filter{})
	if len(all) != 2 || all[0].ID != "fitness" || all[1].ID != "habits" {
		t.Fatalf("unexpected listing: %v", all)
	}

	enabled := true
	if got := m.GetModules(types.Filter{Enabled: &enabled}); len(got) != 1 || got[0].ID != "habits" {
		t.Errorf("enabled filter returned %v", got)
	}
	if got := m.GetModules(types.Filter{Search: "fit"}); len(got) != 1 || got[0].ID != "fitness" {
		t.Errorf("search filter returned %v", got)
	}
	if got := m.GetModules(types.Filter{Statuses: []types.Status{types.StatusInstalled}}); len(got) != 1 {
		t.Errorf("status filter returned %v", got)
	}

	stats := m.GetStatistics()
	if stats.Total != 2 || stats.Enabled != 1 || stats.Errors != 0 {
		t.Errorf("unexpected statistics: %+v", stats)
	}
	if stats.ByStatus[types.StatusInstalled] != 1 {
		t.Errorf("unexpected by-status: %v", stats.ByStatus)
	}

	// Returned descriptors are copies.
	all[1].Name = "mutated"
	if mod, _ := m.GetModule("habits"); mod.Name == "mutated" {
		t.Error("query results must be copies")
	}
}

func TestDependencyQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	m.Register(ctx, buildModule(t, "habits", "1.0.0", nil, types.Hooks{}), types.RegisterOptions{AutoEnable: true})
	m.Register(ctx,
		buildModule(t, "streaks", "1.0.0", map[string]string{"habits": "^1.0.0"}, types.Hooks{}),
		types.RegisterOptions{AutoEnable: true})

	if deps := m.Dependents("habits"); len(deps) != 1 || deps[0] != "streaks" {
		t.Errorf("unexpected dependents: %v", deps)
	}
	if tree := m.DependencyTree("streaks"); len(tree) != 2 || tree[0] != "habits" || tree[1] != "streaks" {
		t.Errorf("unexpected tree: %v", tree)
	}

	state, _ := m.GetModuleState("habits")
	if len(state.Dependents) != 1 || state.Dependents[0] != "streaks" {
		t.Errorf("state dependents not recomputed: %v", state.Dependents)
	}

	res := m.Resolve("journal", map[string]string{"habits": "^1.0.0", "mood": "~2.0.0"})
	if res.CanInstall {
		t.Error("resolve should flag the missing dependency")
	}
	if len(res.Dependencies) != 2 {
		t.Errorf("expected two facts, got %v", res.Dependencies)
	}
}
