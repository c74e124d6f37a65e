package projects

import (
	"encoding/json"

	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/domain"
	"carbon-registry/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Store *ledger.Store
}

type createProjectBody struct {
	ProjectCode string `json:"project_code"`
	ProjectName string `json:"project_name"`
}

// GET /api/v1/projects/active
func (h *Handlers) ListActive(c *fiber.Ctx) error {
	projects, err := h.Store.ListActiveProjects(c.Context())
	if err != nil {
		return err
	}
	return response.List(c, "Active projects fetched successfully", projects, len(projects))
}

// POST /api/v1/projects: 201 with the new project
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body createProjectBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return domain.Invalid("body", "Invalid request body")
	}
	p, err := h.Store.CreateProject(c.Context(), body.ProjectCode, body.ProjectName)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Project created successfully", ledger.ActiveProject{Project: *p, Label: p.Label()}, nil)
}

// PATCH /api/v1/projects/:project_id/archive
func (h *Handlers) Archive(c *fiber.Ctx) error {
	p, err := h.Store.ArchiveProject(c.Context(), c.Params("project_id"))
	if err != nil {
		return err
	}
	return response.Success(c, "Project archived successfully", p, nil)
}
