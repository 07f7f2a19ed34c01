package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/domain/registry"
	"github.com/solstreakhq/solstreak/backend/internal/shared/types"
)

// Handlers exposes the module registry over HTTP
type Handlers struct {
	manager *registry.Manager
	factory *factory.Factory
}

// NewHandlers creates HTTP handlers
func NewHandlers(manager *registry.Manager, f *factory.Factory) *Handlers {
	return &Handlers{manager: manager, factory: f}
}

// Root returns service identification
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "solstreak-module-registry",
		"version": "1.0.0",
	})
}

// Health returns service health and registry statistics
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"modules": h.manager.GetStatistics(),
	})
}

// registerRequest is the POST /modules payload
type registerRequest struct {
	Manifest            factory.Config         `json:"manifest"`
	AutoEnable          bool                   `json:"auto_enable"`
	SkipDependencyCheck bool                   `json:"skip_dependency_check"`
	Config              map[string]interface{} `json:"config"`
}

// RegisterModule builds a module from a manifest and registers it
func (h *Handlers) RegisterModule(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	mod, err := h.factory.CreateModule(req.Manifest)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result := h.manager.Register(c.Request.Context(), mod, types.RegisterOptions{
		AutoEnable:          req.AutoEnable,
		SkipDependencyCheck: req.SkipDependencyCheck,
		Config:              req.Config,
	})
	if !result.Success {
		c.JSON(http.StatusConflict, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// UnregisterModule removes a module
func (h *Handlers) UnregisterModule(c *gin.Context) {
	result := h.manager.Unregister(c.Request.Context(), c.Param("id"))
	if !result.Success {
		c.JSON(statusForFailure(result.Error), gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result)
}

// EnableModule turns a module on
func (h *Handlers) EnableModule(c *gin.Context) {
	result := h.manager.Enable(c.Request.Context(), c.Param("id"))
	if !result.Success {
		c.JSON(statusForFailure(result.Error), gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result)
}

// DisableModule turns a module off
func (h *Handlers) DisableModule(c *gin.Context) {
	result := h.manager.Disable(c.Request.Context(), c.Param("id"))
	if !result.Success {
		c.JSON(statusForFailure(result.Error), gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateModuleConfig replaces a module's config map
func (h *Handlers) UpdateModuleConfig(c *gin.Context) {
	var cfg map[string]interface{}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	result := h.manager.UpdateConfig(c.Request.Context(), c.Param("id"), cfg)
	if !result.Success {
		c.JSON(statusForFailure(result.Error), gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListModules lists registered modules with optional filtering
func (h *Handlers) ListModules(c *gin.Context) {
	filter := parseFilter(c)
	modules := h.manager.GetModules(filter)
	states := h.manager.GetStates(filter)

	c.JSON(http.StatusOK, gin.H{
		"modules": modules,
		"states":  states,
		"count":   len(states),
	})
}

// GetModule returns one module descriptor with its state
func (h *Handlers) GetModule(c *gin.Context) {
	id := c.Param("id")
	mod, ok := h.manager.GetModule(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "module not found: " + id})
		return
	}
	state, _ := h.manager.GetModuleState(id)
	c.JSON(http.StatusOK, gin.H{"module": mod, "state": state})
}

// GetModuleState returns only the lifecycle state, including error-state
// entries that never materialized a descriptor.
func (h *Handlers) GetModuleState(c *gin.Context) {
	id := c.Param("id")
	state, ok := h.manager.GetModuleState(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "module not found: " + id})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetModuleDependencies returns the module's dependency tree and its
// dependents.
func (h *Handlers) GetModuleDependencies(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.manager.GetModuleState(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "module not found: " + id})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"module_id":  id,
		"tree":       h.manager.DependencyTree(id),
		"dependents": h.manager.Dependents(id),
		"issues":     h.manager.ValidateChain(id),
	})
}

// ResolveDependencies evaluates a dependency map without registering
func (h *Handlers) ResolveDependencies(c *gin.Context) {
	var req struct {
		ModuleID     string            `json:"module_id"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.manager.Resolve(req.ModuleID, req.Dependencies))
}

// GetStatistics summarizes registry contents
func (h *Handlers) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.GetStatistics())
}

// ListTemplates returns the built-in starter template kinds
func (h *Handlers) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": factory.TemplateKinds()})
}

// CreateFromTemplate registers a module built from a starter template
func (h *Handlers) CreateFromTemplate(c *gin.Context) {
	kind := c.Param("kind")
	cfg, err := factory.CreateTemplate(kind)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	mod, err := h.factory.CreateModule(cfg)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	autoEnable, _ := strconv.ParseBool(c.DefaultQuery("auto_enable", "false"))
	result := h.manager.Register(c.Request.Context(), mod, types.RegisterOptions{AutoEnable: autoEnable})
	if !result.Success {
		c.JSON(http.StatusConflict, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// parseFilter builds a listing filter from query parameters
func parseFilter(c *gin.Context) types.Filter {
	var filter types.Filter

	if raw, ok := c.GetQuery("enabled"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Enabled = &v
		}
	}
	if raw, ok := c.GetQuery("installed"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Installed = &v
		}
	}
	if raw, ok := c.GetQuery("status"); ok {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, types.Status(s))
			}
		}
	}
	filter.Search = c.Query("search")
	filter.Author = c.Query("author")
	return filter
}

// statusForFailure maps a rejection message to an HTTP status
func statusForFailure(message string) int {
	if strings.Contains(message, "is not registered") || strings.Contains(message, "not found") {
		return http.StatusNotFound
	}
	return http.StatusConflict
}
