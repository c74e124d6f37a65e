package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/infrastructure/database"
	"carbon-registry/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProjectsTest(t *testing.T) (*fiber.App, *ledger.Store) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	store := ledger.New(db)
	require.NoError(t, store.EnsureSchema(context.Background()))

	h := &Handlers{Store: store}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/api/v1/projects/active", h.ListActive)
	app.Post("/api/v1/projects", h.Create)
	app.Patch("/api/v1/projects/:project_id/archive", h.Archive)
	return app, store
}

func decode(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestCreateProject_ThenListActive(t *testing.T) {
	app, _ := setupProjectsTest(t)

	body, _ := json.Marshal(map[string]string{"project_code": "EV-01", "project_name": "Depot chargers"})
	req := httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode(t, resp.Body)
	data := created["data"].(map[string]interface{})
	assert.Equal(t, "EV-01 — Depot chargers", data["label"])
	assert.Equal(t, "active", data["status"])
	id := data["project_id"].(string)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/projects/active", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.Equal(t, "success", out["status"])
	list := out["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].(map[string]interface{})["project_id"])
	assert.Equal(t, float64(1), out["metadata"].(map[string]interface{})["count"])
}

func TestCreateProject_InvalidBody(t *testing.T) {
	app, _ := setupProjectsTest(t)
	req := httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader([]byte("{")))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestArchiveProject(t *testing.T) {
	app, store := setupProjectsTest(t)
	p, err := store.CreateProject(context.Background(), "OLD", "")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("PATCH", "/api/v1/projects/"+p.ProjectID+"/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.Equal(t, "archived", out["data"].(map[string]interface{})["status"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/projects/active", nil))
	require.NoError(t, err)
	out = decode(t, resp.Body)
	assert.Empty(t, out["data"])

	resp, err = app.Test(httptest.NewRequest("PATCH", "/api/v1/projects/missing/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	out = decode(t, resp.Body)
	assert.Equal(t, "error", out["status"])
}
