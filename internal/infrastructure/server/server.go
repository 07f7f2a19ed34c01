package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/solstreakhq/solstreak/backend/internal/api/http"
	"github.com/solstreakhq/solstreak/backend/internal/api/middleware"
	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/domain/registry"
	"github.com/solstreakhq/solstreak/backend/internal/infrastructure/config"
	"github.com/solstreakhq/solstreak/backend/internal/infrastructure/monitoring"
	"github.com/solstreakhq/solstreak/backend/internal/logging"
	"github.com/solstreakhq/solstreak/backend/internal/storage"
	"github.com/solstreakhq/solstreak/backend/internal/ws"
)

// Server wires the module registry behind an HTTP API
type Server struct {
	httpServer *http.Server
	manager    *registry.Manager
	seeder     *registry.Seeder
	logger     *logging.Logger
	config     *config.Config
}

// New assembles the full service from configuration
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing module registry service",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage_dir", cfg.Storage.Dir),
		zap.String("seed_dir", cfg.Seed.Dir),
	)

	metrics := monitoring.NewMetrics()

	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open module store: %w", err)
	}

	conditions := manifest.NewConditionRegistry()
	validator := manifest.NewValidatorWithConditions(conditions)
	moduleFactory := factory.New(validator, logger.Logger)

	manager := registry.NewManager(store, validator, logger).WithMetrics(metrics)
	seeder := registry.NewSeeder(manager, moduleFactory, cfg.Seed.Dir, cfg.Seed.AutoEnable, logger)
	manager.WithLoader(seeder.Loader())

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Rate.RequestsPerSecond,
		Burst:             cfg.Rate.Burst,
	}))

	handlers := apihttp.NewHandlers(manager, moduleFactory)
	wsHandler := ws.NewHandler(manager, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.GetStatistics)

	router.GET("/modules", handlers.ListModules)
	router.POST("/modules", handlers.RegisterModule)
	router.GET("/modules/:id", handlers.GetModule)
	router.DELETE("/modules/:id", handlers.UnregisterModule)
	router.GET("/modules/:id/state", handlers.GetModuleState)
	router.GET("/modules/:id/dependencies", handlers.GetModuleDependencies)
	router.POST("/modules/:id/enable", handlers.EnableModule)
	router.POST("/modules/:id/disable", handlers.DisableModule)
	router.PUT("/modules/:id/config", handlers.UpdateModuleConfig)

	router.POST("/resolve", handlers.ResolveDependencies)
	router.GET("/templates", handlers.ListTemplates)
	router.POST("/templates/:kind", handlers.CreateFromTemplate)

	router.GET("/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		httpServer: &http.Server{Addr: cfg.Server.Addr(), Handler: router},
		manager:    manager,
		seeder:     seeder,
		logger:     logger,
		config:     cfg,
	}, nil
}

// Manager exposes the registry for embedding callers
func (s *Server) Manager() *registry.Manager {
	return s.manager
}

// Start rehydrates persisted modules, seeds starters and serves HTTP
// until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if result := s.manager.Initialize(ctx); !result.Success {
		return fmt.Errorf("registry initialization failed: %s", result.Error)
	}
	loaded, failed := s.seeder.SeedModules(ctx)
	s.logger.Info("startup seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))

	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and syncs the logger
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.httpServer.Shutdown(ctx)
	s.logger.Sync()
	return err
}
