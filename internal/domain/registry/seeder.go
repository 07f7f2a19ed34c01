package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/logging"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Seeder registers starter modules from YAML manifests on disk. A
// manifest that fails to parse or register is logged and skipped; the
// rest still load.
type Seeder struct {
	manager    *Manager
	factory    *factory.Factory
	dir        string
	autoEnable bool
	logger     *logging.Logger
}

// NewSeeder creates a seeder reading manifests from dir
func NewSeeder(manager *Manager, f *factory.Factory, dir string, autoEnable bool, logger *logging.Logger) *Seeder {
	if logger == nil {
		logger = &logging.Logger{Logger: zap.NewNop()}
	}
	return &Seeder{
		manager:    manager,
		factory:    f,
		dir:        dir,
		autoEnable: autoEnable,
		logger:     logger,
	}
}

// SeedModules registers every manifest in the seed directory that is
// not already registered. Returns how many loaded and how many failed.
func (s *Seeder) SeedModules(ctx context.Context) (loaded, failed int) {
	paths, err := s.manifestPaths()
	if err != nil {
		s.logger.Warn("seed directory unavailable", zap.String("dir", s.dir), zap.Error(err))
		return 0, 0
	}

	for _, path := range paths {
		cfg, err := s.readManifest(path)
		if err != nil {
			failed++
			s.logger.Error("failed to read seed manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, exists := s.manager.GetModule(cfg.ID); exists {
			continue
		}

		mod, err := s.factory.CreateModule(*cfg)
		if err != nil {
			failed++
			s.logger.Error("failed to build seed module", zap.String("path", path), zap.Error(err))
			continue
		}

		result := s.manager.Register(ctx, mod, types.RegisterOptions{AutoEnable: s.autoEnable})
		if !result.Success {
			failed++
			s.logger.Error("failed to register seed module",
				zap.String("module", mod.ID), zap.String("error", result.Error))
			continue
		}
		loaded++
	}

	s.logger.Info("seed modules processed",
		zap.String("dir", s.dir), zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, failed
}

// Loader returns a record materializer backed by the seed manifests:
// the manifest matching the record id is rebuilt through the factory.
// Used by Manager.Initialize to rehydrate persisted modules.
func (s *Seeder) Loader() Loader {
	return func(record *types.ModuleRecord) (*types.Module, error) {
		cfg, err := s.findManifest(record.ID)
		if err != nil {
			return nil, err
		}
		return s.factory.CreateModule(*cfg)
	}
}

func (s *Seeder) manifestPaths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Seeder) readManifest(path string) (*factory.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg factory.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return &cfg, nil
}

// findManifest locates the seed manifest whose id matches moduleID
func (s *Seeder) findManifest(moduleID string) (*factory.Config, error) {
	paths, err := s.manifestPaths()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		cfg, err := s.readManifest(path)
		if err != nil {
			continue
		}
		if cfg.ID == moduleID {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("no seed manifest for module %q", moduleID)
}
