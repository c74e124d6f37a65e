package emissions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"carbon-registry/internal/application/export"
	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Store *ledger.Store
}

type createEmissionBody struct {
	ProjectID     string          `json:"project_id"`
	Methodology   string          `json:"methodology"`
	QuantityTCO2e *float64        `json:"quantity_tco2e"`
	RecordDate    string          `json:"record_date"`
	Notes         string          `json:"notes"`
	Inputs        json.RawMessage `json:"inputs"`
	Outputs       json.RawMessage `json:"outputs"`
}

func rawOrEmpty(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return json.RawMessage(`{}`)
	}
	return m
}

// POST /api/v1/emissions: append a raw record; 201 with its id.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body createEmissionBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return domain.Invalid("body", "Invalid request body")
	}
	if body.QuantityTCO2e == nil {
		return domain.Invalid("quantity_tco2e", "is required")
	}
	id, err := h.Store.SaveEmission(c.Context(), ledger.SaveEmissionInput{
		ProjectID:     body.ProjectID,
		Methodology:   body.Methodology,
		QuantityTCO2e: *body.QuantityTCO2e,
		RecordDate:    body.RecordDate,
		Notes:         body.Notes,
		Inputs:        rawOrEmpty(body.Inputs),
		Outputs:       rawOrEmpty(body.Outputs),
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Emission record saved", fiber.Map{"emission_id": id}, nil)
}

func filterFrom(c *fiber.Ctx) ledger.EmissionFilter {
	return ledger.EmissionFilter{
		ProjectID:   c.Query("project_id"),
		Methodology: c.Query("methodology"),
		From:        c.Query("from"),
		To:          c.Query("to"),
		Limit:       c.QueryInt("limit", 0),
	}
}

// GET /api/v1/emissions?project_id=&methodology=&from=&to=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	rows, err := h.Store.ListEmissions(c.Context(), filterFrom(c))
	if err != nil {
		return err
	}
	return response.List(c, "Emission records fetched successfully", rows, len(rows))
}

// GET /api/v1/emissions/:emission_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	e, err := h.Store.GetEmission(c.Context(), c.Params("emission_id"))
	if err != nil {
		return err
	}
	return response.Success(c, "Emission record fetched successfully", e, nil)
}

type notesBody struct {
	Notes *string `json:"notes"`
}

// PATCH /api/v1/emissions/:emission_id/notes
func (h *Handlers) UpdateNotes(c *fiber.Ctx) error {
	var body notesBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return domain.Invalid("body", "Invalid request body")
	}
	if body.Notes == nil {
		return domain.Invalid("notes", "is required")
	}
	e, err := h.Store.UpdateNotes(c.Context(), c.Params("emission_id"), *body.Notes)
	if err != nil {
		return err
	}
	return response.Success(c, "Notes updated successfully", e, nil)
}

// GET /api/v1/emissions/totals?project_id=
func (h *Handlers) Totals(c *fiber.Ctx) error {
	totals, err := h.Store.TotalsByMethodology(c.Context(), c.Query("project_id"))
	if err != nil {
		return err
	}
	return response.List(c, "Totals fetched successfully", totals, len(totals))
}

// GET /api/v1/emissions/export?format=csv|xlsx plus the List filters.
func (h *Handlers) Export(c *fiber.Ctx) error {
	format := c.Query("format", export.FormatCSV)
	rows, err := h.Store.ListEmissions(c.Context(), filterFrom(c))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, rows); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.FileName(format, time.Now())))
	return c.Send(buf.Bytes())
}
