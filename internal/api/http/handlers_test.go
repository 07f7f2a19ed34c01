package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/solstreakhq/solstreak/backend/internal/domain/factory"
	"github.com/solstreakhq/solstreak/backend/internal/domain/manifest"
	"github.com/solstreakhq/solstreak/backend/internal/domain/registry"
	"github.com/solstreakhq/solstreak/backend/internal/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	validator := manifest.NewValidator()
	manager := registry.NewManager(storage.NewMemStore(), validator, nil)
	handlers := NewHandlers(manager, factory.New(validator, nil))

	router := gin.New()
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
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerBody(id string, autoEnable bool) map[string]interface{} {
	return map[string]interface{}{
		"manifest": map[string]interface{}{
			"id":          id,
			"name":        "Test " + id,
			"version":     "1.0.0",
			"author":      "Solstreak Team",
			"description": "test module",
		},
		"auto_enable": autoEnable,
	}
}

func TestRegisterAndFetchModule(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/modules", registerBody("fitness", true))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/modules/fitness", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		State struct {
			Status string `json:"status"`
		} `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State.Status != "enabled" {
		t.Errorf("expected enabled, got %q", resp.State.Status)
	}
}

func TestRegisterRejectsInvalidManifest(t *testing.T) {
	router := newTestRouter(t)

	body := registerBody("Bad-ID", false)
	w := doJSON(t, router, http.MethodPost, "/modules", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterConflictOnMissingDependency(t *testing.T) {
	router := newTestRouter(t)

	body := registerBody("streaks", false)
	body["manifest"].(map[string]interface{})["dependencies"] = map[string]string{"habits": "^1.0.0"}
	w := doJSON(t, router, http.MethodPost, "/modules", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/modules", registerBody("fitness", false))

	if w := doJSON(t, router, http.MethodPost, "/modules/fitness/enable", nil); w.Code != http.StatusOK {
		t.Fatalf("enable failed: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPut, "/modules/fitness/config", map[string]interface{}{"units": "metric"}); w.Code != http.StatusOK {
		t.Fatalf("config update failed: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPost, "/modules/fitness/disable", nil); w.Code != http.StatusOK {
		t.Fatalf("disable failed: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodDelete, "/modules/fitness", nil); w.Code != http.StatusOK {
		t.Fatalf("unregister failed: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPost, "/modules/ghost/enable", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown module, got %d", w.Code)
	}
}

func TestListAndFilter(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/modules", registerBody("fitness", true))
	doJSON(t, router, http.MethodPost, "/modules", registerBody("reading", false))

	w := doJSON(t, router, http.MethodGet, "/modules?enabled=true", nil)
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 {
		t.Errorf("expected 1 enabled module, got %d", resp.Count)
	}
}

func TestResolveEndpoint(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/modules", registerBody("habits", true))

	w := doJSON(t, router, http.MethodPost, "/resolve", map[string]interface{}{
		"module_id":    "journal",
		"dependencies": map[string]string{"habits": "^1.0.0", "mood": "^2.0.0"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve failed: %d", w.Code)
	}
	var resp struct {
		CanInstall bool     `json:"can_install"`
		Conflicts  []string `json:"conflicts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.CanInstall || len(resp.Conflicts) != 1 {
		t.Errorf("unexpected resolution: %+v", resp)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list templates failed: %d", w.Code)
	}

	if w := doJSON(t, router, http.MethodPost, "/templates/fitness?auto_enable=true", nil); w.Code != http.StatusCreated {
		t.Fatalf("template create failed: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPost, "/templates/unknown", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d", w.Code)
	}
}
