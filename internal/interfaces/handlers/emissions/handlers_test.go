package emissions

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/infrastructure/database"
	"carbon-registry/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupEmissionsTest(t *testing.T) (*fiber.App, *ledger.Store, *domain.Project) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	store := ledger.New(db)
	require.NoError(t, store.EnsureSchema(context.Background()))
	p, err := store.CreateProject(context.Background(), "EV-01", "Depot")
	require.NoError(t, err)

	h := &Handlers{Store: store}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	g := app.Group("/api/v1/emissions")
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/totals", h.Totals)
	g.Get("/export", h.Export)
	g.Get("/:emission_id", h.Get)
	g.Patch("/:emission_id/notes", h.UpdateNotes)
	return app, store, p
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestCreateAndGet(t *testing.T) {
	app, _, p := setupEmissionsTest(t)
	code, out := do(t, app, "POST", "/api/v1/emissions", map[string]interface{}{
		"project_id":     p.ProjectID,
		"methodology":    "MANUAL",
		"quantity_tco2e": 4.5,
		"record_date":    "2026-02-01",
		"notes":          "invoice",
		"inputs":         map[string]interface{}{"litres": 1700},
	})
	require.Equal(t, fiber.StatusCreated, code)
	id := out["data"].(map[string]interface{})["emission_id"].(string)

	code, out = do(t, app, "GET", "/api/v1/emissions/"+id, nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, 4.5, data["quantity_tco2e"])
	assert.Equal(t, p.ProjectID, data["project_id"])
	assert.Equal(t, map[string]interface{}{"litres": float64(1700)}, data["inputs"])
	assert.Equal(t, map[string]interface{}{}, data["outputs"])

	code, _ = do(t, app, "GET", "/api/v1/emissions/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestCreate_Errors(t *testing.T) {
	app, store, p := setupEmissionsTest(t)
	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"missing quantity", map[string]interface{}{"project_id": p.ProjectID, "methodology": "M", "record_date": "2026-01-01"}, fiber.StatusBadRequest},
		{"bad date", map[string]interface{}{"project_id": p.ProjectID, "methodology": "M", "record_date": "Jan 1", "quantity_tco2e": 1}, fiber.StatusBadRequest},
		{"unknown project", map[string]interface{}{"project_id": "nope", "methodology": "M", "record_date": "2026-01-01", "quantity_tco2e": 1}, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := do(t, app, "POST", "/api/v1/emissions", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, "error", out["status"])
		})
	}
	var n int64
	require.NoError(t, store.DB.Model(&domain.Emission{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func seed(t *testing.T, store *ledger.Store, p *domain.Project) string {
	t.Helper()
	ctx := context.Background()
	r, err := methodology.CalculateVM0038(methodology.VM0038Input{
		GridEFKgPerKWh: 0.5, Years: 3, FuelType: "Petrol", ChargingEffPct: 90, FuelAvoidedLitresYear: 10000,
	})
	require.NoError(t, err)
	id, err := store.SaveCalculation(ctx, p.ProjectID, "2026-03-01", "", r)
	require.NoError(t, err)
	_, err = store.SaveEmission(ctx, ledger.SaveEmissionInput{
		ProjectID: p.ProjectID, Methodology: "MANUAL", QuantityTCO2e: 1.25, RecordDate: "2026-04-01",
		Inputs: map[string]int{}, Outputs: map[string]int{},
	})
	require.NoError(t, err)
	return id
}

func TestListTotalsAndNotes(t *testing.T) {
	app, store, p := setupEmissionsTest(t)
	id := seed(t, store, p)

	code, out := do(t, app, "GET", "/api/v1/emissions?methodology=VM0038", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = do(t, app, "GET", "/api/v1/emissions?project_id="+p.ProjectID+"&from=2026-03-15", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(1), out["metadata"].(map[string]interface{})["count"])

	code, _ = do(t, app, "GET", "/api/v1/emissions?limit=-1", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = do(t, app, "GET", "/api/v1/emissions/totals?project_id="+p.ProjectID, nil)
	assert.Equal(t, fiber.StatusOK, code)
	totals := out["data"].([]interface{})
	require.Len(t, totals, 2)
	assert.Equal(t, "MANUAL", totals[0].(map[string]interface{})["methodology"])

	code, out = do(t, app, "PATCH", "/api/v1/emissions/"+id+"/notes", map[string]string{"notes": "checked by ops"})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "checked by ops", out["data"].(map[string]interface{})["notes"])

	code, _ = do(t, app, "PATCH", "/api/v1/emissions/"+id+"/notes", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestExport(t *testing.T) {
	app, store, p := setupEmissionsTest(t)
	seed(t, store, p)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/emissions/export", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")
	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/emissions/export?format=xlsx&methodology=VM0038", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	series, err := f.GetRows("Series")
	require.NoError(t, err)
	assert.Len(t, series, 4)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/emissions/export?format=pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
