package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/domain/resolver"
	"github.com/solstreakhq/solstreak/backend/internal/infrastructure/monitoring"
	"github.com/solstreakhq/solstreak/backend/internal/logging"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
	"github.com/solstreakhq/solstreak/backend/internal/storage"
)

// Loader materializes a live module descriptor from a persisted record
// during initialization.
type Loader func(record *types.ModuleRecord) (*types.Module, error)

// Manager orchestrates the module lifecycle
type Manager struct {
	mu       sync.RWMutex
	modules  map[string]*types.Module      // protected by mu
	states   map[string]*types.ModuleState // protected by mu
	resolver *resolver.Resolver            // reads modules/states under mu

	store     storage.Store
	validator *manifest.Validator
	loader    Loader
	bus       *eventBus
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	initialized bool
}

// NewManager creates a registry backed by store and validated by
// validator. A nil logger falls back to a no-op.
func NewManager(store storage.Store, validator *manifest.Validator, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = &logging.Logger{Logger: zap.NewNop()}
	}
	m := &Manager{
		modules:   make(map[string]*types.Module),
		states:    make(map[string]*types.ModuleState),
		store:     store,
		validator: validator,
		logger:    logger,
		bus:       newEventBus(logger),
	}
	m.resolver = resolver.New(&catalogView{m: m})
	return m
}

// WithMetrics attaches metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	m.bus.subscribe(EventAny, func(e Event) {
		metrics.CountEvent(string(e.Kind))
	})
	return m
}

// WithLoader sets the record materializer used by Initialize
func (m *Manager) WithLoader(loader Loader) *Manager {
	m.loader = loader
	return m
}

// Subscribe registers a handler for an event kind (EventAny for all)
func (m *Manager) Subscribe(kind EventKind, handler Handler) *Subscription {
	return m.bus.subscribe(kind, handler)
}

// Unsubscribe removes a previously registered handler
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.bus.unsubscribe(sub)
}

// Initialize loads every persisted record and materializes it into a
// live module. A record that fails to load lands in error state and the
// rest continue. Calling Initialize twice is a no-op.
func (m *Manager) Initialize(ctx context.Context) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return types.Ok("")
	}

	records, err := m.store.ListInstalled()
	if err != nil {
		return m.failure("", fmt.Sprintf("failed to load module records: %v", err))
	}

	var loaded, failed int
	for _, record := range records {
		if err := m.materializeLocked(record); err != nil {
			failed++
			m.states[record.ID] = &types.ModuleState{
				ModuleID:    record.ID,
				Status:      types.StatusError,
				Version:     record.Version,
				LastError:   err.Error(),
				Config:      types.CloneConfig(record.Config),
				InstalledAt: record.CreatedAt,
				UpdatedAt:   time.Now().UTC(),
			}
			m.logger.Error("failed to materialize module",
				zap.String("module", record.ID), zap.Error(err))
			continue
		}
		loaded++
	}

	m.recomputeDependentsLocked()
	m.initialized = true
	m.syncMetricsLocked()
	m.logger.Info("module registry initialized",
		zap.Int("loaded", loaded), zap.Int("failed", failed))

	result := types.Ok("")
	result.Data = map[string]interface{}{"loaded": loaded, "failed": failed}
	return result
}

func (m *Manager) materializeLocked(record *types.ModuleRecord) error {
	if m.loader == nil {
		return fmt.Errorf("no loader configured for module %q", record.ID)
	}
	mod, err := m.loader(record)
	if err != nil {
		return err
	}
	if result := m.validator.Validate(mod); !result.Valid {
		return fmt.Errorf("invalid manifest: %s", strings.Join(result.Errors, "; "))
	}

	status := types.StatusInstalled
	if record.IsEnabled {
		status = types.StatusEnabled
	}
	m.modules[record.ID] = mod.Clone()
	m.states[record.ID] = &types.ModuleState{
		ModuleID:     record.ID,
		Status:       status,
		Version:      mod.Version,
		Config:       types.CloneConfig(record.Config),
		Dependencies: mod.DependencyIDs(),
		InstalledAt:  record.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	return nil
}

// Register validates, dependency-checks, installs and persists a new
// module. Nothing is committed to the live table until every step has
// succeeded, so a failed registration leaves the registry unchanged.
func (m *Manager) Register(ctx context.Context, mod *types.Module, opts types.RegisterOptions) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mod == nil {
		return m.failure("", "module descriptor is required")
	}
	moduleID := mod.ID

	if result := m.validator.Validate(mod); !result.Valid {
		return m.failure(moduleID, fmt.Sprintf("manifest validation failed: %s", strings.Join(result.Errors, "; ")))
	}
	if _, exists := m.modules[moduleID]; exists {
		return m.failure(moduleID, fmt.Sprintf("module %q is already registered", moduleID))
	}
	if _, exists := m.states[moduleID]; exists {
		return m.failure(moduleID, fmt.Sprintf("module %q is already registered", moduleID))
	}

	if !opts.SkipDependencyCheck {
		resolution := m.resolver.Resolve(moduleID, mod.Metadata.Dependencies)
		if !resolution.CanInstall {
			return m.failure(moduleID, fmt.Sprintf("dependency conflicts: %s", strings.Join(resolution.Conflicts, "; ")))
		}
	}

	m.bus.emit(EventInstalling, moduleID, nil)

	if err := m.runHook(ctx, moduleID, "install", mod.Hooks.Install); err != nil {
		return m.failure(moduleID, fmt.Sprintf("install hook failed: %v", err))
	}

	record := &types.ModuleRecord{
		ID:          moduleID,
		Name:        mod.Name,
		Version:     mod.Version,
		IsInstalled: true,
		IsEnabled:   opts.AutoEnable,
		Config:      types.CloneConfig(opts.Config),
	}
	saved, err := m.store.Save(record)
	if err != nil {
		return m.failure(moduleID, fmt.Sprintf("failed to persist module: %v", err))
	}

	status := types.StatusInstalled
	if opts.AutoEnable {
		status = types.StatusEnabled
	}
	m.modules[moduleID] = mod.Clone()
	m.states[moduleID] = &types.ModuleState{
		ModuleID:     moduleID,
		Status:       status,
		Version:      mod.Version,
		Config:       types.CloneConfig(opts.Config),
		Dependencies: mod.DependencyIDs(),
		InstalledAt:  saved.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	m.recomputeDependentsLocked()
	m.bus.emit(EventInstalled, moduleID, nil)
	m.countOperation("register", "success")

	if opts.AutoEnable {
		m.bus.emit(EventEnabling, moduleID, nil)
		if err := m.runHook(ctx, moduleID, "enable", mod.Hooks.Enable); err != nil {
			m.setErrorLocked(moduleID, fmt.Sprintf("enable hook failed: %v", err))
			return types.Fail(moduleID, fmt.Sprintf("module installed but enabling failed: %v", err))
		}
		m.bus.emit(EventEnabled, moduleID, nil)
	}

	m.syncMetricsLocked()
	m.logger.Info("module registered",
		zap.String("module", moduleID),
		zap.String("version", mod.Version),
		zap.Bool("auto_enable", opts.AutoEnable))

	result := types.Ok(moduleID)
	result.Data = map[string]interface{}{"status": string(m.states[moduleID].Status)}
	return result
}

// Unregister removes a module. Rejected while any dependent is
// registered. An enabled module is disabled first; a module already in
// error state skips its hooks and is simply removed.
func (m *Manager) Unregister(ctx context.Context, moduleID string) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, hasModule := m.modules[moduleID]
	state, hasState := m.states[moduleID]
	if !hasModule && !hasState {
		return m.failure(moduleID, fmt.Sprintf("module %q is not registered", moduleID))
	}

	if dependents := m.resolver.Dependents(moduleID); len(dependents) > 0 {
		return m.failure(moduleID, fmt.Sprintf("cannot unregister %q: required by %s", moduleID, strings.Join(dependents, ", ")))
	}

	skipHooks := hasState && state.Status == types.StatusError

	if hasState && state.Status == types.StatusEnabled && hasModule {
		m.bus.emit(EventDisabling, moduleID, nil)
		if err := m.runHook(ctx, moduleID, "disable", mod.Hooks.Disable); err != nil {
			m.setErrorLocked(moduleID, fmt.Sprintf("disable hook failed: %v", err))
			return types.Fail(moduleID, fmt.Sprintf("cannot unregister %q: disable hook failed: %v", moduleID, err))
		}
		state.Status = types.StatusDisabled
		state.UpdatedAt = time.Now().UTC()
		m.bus.emit(EventDisabled, moduleID, nil)
	}

	m.bus.emit(EventUninstalling, moduleID, nil)
	if hasState {
		state.Status = types.StatusUninstalling
	}

	if !skipHooks && hasModule {
		if err := m.runHook(ctx, moduleID, "uninstall", mod.Hooks.Uninstall); err != nil {
			m.setErrorLocked(moduleID, fmt.Sprintf("uninstall hook failed: %v", err))
			return types.Fail(moduleID, fmt.Sprintf("uninstall hook failed: %v", err))
		}
	}

	if err := m.store.Remove(moduleID); err != nil && err != storage.ErrNotFound {
		m.setErrorLocked(moduleID, fmt.Sprintf("failed to remove module record: %v", err))
		return types.Fail(moduleID, fmt.Sprintf("failed to remove module record: %v", err))
	}

	delete(m.modules, moduleID)
	delete(m.states, moduleID)
	m.recomputeDependentsLocked()
	m.bus.emit(EventUninstalled, moduleID, nil)
	m.countOperation("unregister", "success")
	m.syncMetricsLocked()
	m.logger.Info("module unregistered", zap.String("module", moduleID))

	return types.Ok(moduleID)
}

// Enable transitions a module to enabled. A no-op when already enabled;
// rejected unless every declared dependency is itself enabled.
func (m *Manager) Enable(ctx context.Context, moduleID string) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, state, result := m.lookupLocked(moduleID)
	if result != nil {
		return *result
	}

	if state.Status == types.StatusEnabled {
		return types.Ok(moduleID)
	}
	if state.Status != types.StatusInstalled && state.Status != types.StatusDisabled {
		return m.failure(moduleID, fmt.Sprintf("module %q cannot be enabled from status %q", moduleID, state.Status))
	}

	// The resolver is the single authority on dependency readiness.
	resolution := m.resolver.Resolve(moduleID, mod.Metadata.Dependencies)
	if !resolution.CanInstall {
		return m.failure(moduleID, fmt.Sprintf("cannot enable %q: %s", moduleID, strings.Join(resolution.Conflicts, "; ")))
	}

	m.bus.emit(EventEnabling, moduleID, nil)
	state.Status = types.StatusEnabled
	state.LastError = ""
	state.UpdatedAt = time.Now().UTC()

	if err := m.runHook(ctx, moduleID, "enable", mod.Hooks.Enable); err != nil {
		m.setErrorLocked(moduleID, fmt.Sprintf("enable hook failed: %v", err))
		return types.Fail(moduleID, fmt.Sprintf("enable hook failed: %v", err))
	}
	if err := m.store.UpdateEnabled(moduleID, true); err != nil {
		m.setErrorLocked(moduleID, fmt.Sprintf("failed to persist enabled flag: %v", err))
		return types.Fail(moduleID, fmt.Sprintf("failed to persist enabled flag: %v", err))
	}

	m.bus.emit(EventEnabled, moduleID, nil)
	m.countOperation("enable", "success")
	m.syncMetricsLocked()
	return types.Ok(moduleID)
}

// Disable transitions a module to disabled. A no-op when already
// disabled; rejected while any enabled dependent exists.
func (m *Manager) Disable(ctx context.Context, moduleID string) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, state, result := m.lookupLocked(moduleID)
	if result != nil {
		return *result
	}

	if state.Status == types.StatusDisabled {
		return types.Ok(moduleID)
	}
	if state.Status != types.StatusEnabled {
		return m.failure(moduleID, fmt.Sprintf("module %q cannot be disabled from status %q", moduleID, state.Status))
	}

	if ok, blockers := m.resolver.CanRemove(moduleID); !ok {
		return m.failure(moduleID, fmt.Sprintf("cannot disable %q: still required by enabled modules: %s", moduleID, strings.Join(blockers, ", ")))
	}

	m.bus.emit(EventDisabling, moduleID, nil)
	state.Status = types.StatusDisabled
	state.UpdatedAt = time.Now().UTC()

	if err := m.runHook(ctx, moduleID, "disable", mod.Hooks.Disable); err != nil {
		m.setErrorLocked(moduleID, fmt.Sprintf("disable hook failed: %v", err))
		return types.Fail(moduleID, fmt.Sprintf("disable hook failed: %v", err))
	}
	if err := m.store.UpdateEnabled(moduleID, false); err != nil {
		m.setErrorLocked(moduleID, fmt.Sprintf("failed to persist enabled flag: %v", err))
		return types.Fail(moduleID, fmt.Sprintf("failed to persist enabled flag: %v", err))
	}

	m.bus.emit(EventDisabled, moduleID, nil)
	m.countOperation("disable", "success")
	m.syncMetricsLocked()
	return types.Ok(moduleID)
}

// UpdateConfig replaces a module's config map, notifies the module via
// its optional config-change hook and persists the new map.
func (m *Manager) UpdateConfig(ctx context.Context, moduleID string, config map[string]interface{}) types.OperationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	mod, state, result := m.lookupLocked(moduleID)
	if result != nil {
		return *result
	}

	oldConfig := types.CloneConfig(state.Config)
	newConfig := types.CloneConfig(config)
	state.Config = newConfig
	state.UpdatedAt = time.Now().UTC()

	if mod.Hooks.ConfigChange != nil {
		if err := m.runConfigHook(ctx, moduleID, mod.Hooks.ConfigChange, oldConfig, newConfig); err != nil {
			m.setErrorLocked(moduleID, fmt.Sprintf("config-change hook failed: %v", err))
			return types.Fail(moduleID, fmt.Sprintf("config-change hook failed: %v", err))
		}
	}

	if err := m.store.UpdateConfig(moduleID, newConfig); err != nil {
		return m.failure(moduleID, fmt.Sprintf("failed to persist config: %v", err))
	}

	m.bus.emit(EventConfigChanged, moduleID, map[string]interface{}{
		"old": oldConfig,
		"new": newConfig,
	})
	m.countOperation("update_config", "success")
	return types.Ok(moduleID)
}

// lookupLocked fetches a module and its state, or a not-registered
// failure. Caller holds mu.
func (m *Manager) lookupLocked(moduleID string) (*types.Module, *types.ModuleState, *types.OperationResult) {
	mod, ok := m.modules[moduleID]
	state, okState := m.states[moduleID]
	if !ok || !okState {
		result := m.failure(moduleID, fmt.Sprintf("module %q is not registered", moduleID))
		return nil, nil, &result
	}
	return mod, state, nil
}

// runHook invokes a lifecycle hook, converting panics to errors. Hooks
// are externally supplied: they may block indefinitely, and the
// registry deliberately imposes no timeout of its own.
func (m *Manager) runHook(ctx context.Context, moduleID, phase string, hook types.HookFunc) (err error) {
	if hook == nil {
		return nil
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s hook: %v", phase, r)
		}
		if m.metrics != nil {
			m.metrics.ObserveHook(phase, time.Since(start))
		}
	}()
	return hook(ctx)
}

func (m *Manager) runConfigHook(ctx context.Context, moduleID string, hook types.ConfigHookFunc, oldConfig, newConfig map[string]interface{}) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in config-change hook: %v", r)
		}
		if m.metrics != nil {
			m.metrics.ObserveHook("config_change", time.Since(start))
		}
	}()
	return hook(ctx, oldConfig, newConfig)
}

// setErrorLocked moves a module to error state with the captured
// message. Caller holds mu.
func (m *Manager) setErrorLocked(moduleID, message string) {
	if state, ok := m.states[moduleID]; ok {
		state.Status = types.StatusError
		state.LastError = message
		state.UpdatedAt = time.Now().UTC()
	}
	m.bus.emit(EventError, moduleID, map[string]interface{}{"error": message})
	m.countOperation("transition", "error")
	m.syncMetricsLocked()
}

// failure reports an operation rejection: no state change happened, but
// the failure is still surfaced as an error event.
func (m *Manager) failure(moduleID, reason string) types.OperationResult {
	m.bus.emit(EventError, moduleID, map[string]interface{}{"error": reason})
	m.countOperation("operation", "rejected")
	return types.Fail(moduleID, reason)
}

// recomputeDependentsLocked rebuilds every state's computed dependents
// list from the declared dependency maps. Caller holds mu.
func (m *Manager) recomputeDependentsLocked() {
	for id, state := range m.states {
		state.Dependents = m.resolver.Dependents(id)
		if mod, ok := m.modules[id]; ok {
			state.Dependencies = mod.DependencyIDs()
		}
	}
}

func (m *Manager) countOperation(op, outcome string) {
	if m.metrics != nil {
		m.metrics.CountModuleOperation(op, outcome)
	}
}

// syncMetricsLocked pushes per-status module counts. Caller holds mu.
func (m *Manager) syncMetricsLocked() {
	if m.metrics == nil {
		return
	}
	counts := make(map[types.Status]int)
	for _, state := range m.states {
		counts[state.Status]++
	}
	m.metrics.SetModuleCounts(map[string]int{
		string(types.StatusInstalling):   counts[types.StatusInstalling],
		string(types.StatusInstalled):    counts[types.StatusInstalled],
		string(types.StatusEnabled):      counts[types.StatusEnabled],
		string(types.StatusDisabled):     counts[types.StatusDisabled],
		string(types.StatusError):        counts[types.StatusError],
		string(types.StatusUninstalling): counts[types.StatusUninstalling],
	})
}
