// Package web provides the REST API for definition management, run
// inspection and event submission.
package web

import (
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/pulsedash/automation/pkg/engine"
	"github.com/pulsedash/automation/pkg/ingest"
	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/registry"
	"github.com/pulsedash/automation/pkg/services"
)

type APIHandlers struct {
	definitions *services.Definitions
	engine      *engine.Engine
	ingest      *ingest.Service
	registry    *registry.Registry
}

func NewAPIHandlers(
	definitions *services.Definitions,
	eng *engine.Engine,
	ingestService *ingest.Service,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		definitions: definitions,
		engine:      eng,
		ingest:      ingestService,
		registry:    reg,
	}
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	var req services.CreateDefinitionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	def, err := h.definitions.Create(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(def)
}

func (h *APIHandlers) GetDefinitions(c fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return badRequest(c, "tenant_id query parameter is required")
	}

	defs, err := h.definitions.List(c.Context(), tenantID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"definitions": defs,
		"count":       len(defs),
	})
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	def, err := h.definitions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) UpdateDefinition(c fiber.Ctx) error {
	var req services.UpdateDefinitionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	def, err := h.definitions.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(def)
}

func (h *APIHandlers) DeleteDefinition(c fiber.Ctx) error {
	if err := h.definitions.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateDefinition(c fiber.Ctx) error {
	result, err := h.definitions.Validate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":      result.Valid(),
		"violations": result.Violations,
	})
}

func (h *APIHandlers) ActivateDefinition(c fiber.Ctx) error {
	violations, err := h.definitions.Activate(c.Context(), c.Params("id"))
	if err != nil {
		if len(violations) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"valid":      false,
				"violations": violations,
			})
		}

		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": string(models.DefinitionStatusActive)})
}

func (h *APIHandlers) PauseDefinition(c fiber.Ctx) error {
	if err := h.definitions.Pause(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": string(models.DefinitionStatusPaused)})
}

func (h *APIHandlers) ResumeDefinition(c fiber.Ctx) error {
	if err := h.definitions.Resume(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": string(models.DefinitionStatusActive)})
}

func (h *APIHandlers) ArchiveDefinition(c fiber.Ctx) error {
	if err := h.definitions.Archive(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": string(models.DefinitionStatusArchived)})
}

func (h *APIHandlers) CloneDefinition(c fiber.Ctx) error {
	clone, err := h.definitions.Clone(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(clone)
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	runs, err := h.definitions.ListRuns(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	run, err := h.definitions.GetRun(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	var req struct {
		CancelledBy string `json:"cancelled_by"`
	}

	// Body is optional on cancel.
	_ = c.Bind().Body(&req)

	if err := h.engine.Cancel(c.Context(), c.Params("id"), req.CancelledBy); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"status": string(models.RunStatusCancelled)})
}

func (h *APIHandlers) SubmitEvent(c fiber.Ctx) error {
	event, err := h.ingest.SubmitEvent(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_id": event.ID,
		"status":   "accepted",
	})
}

// GetSchemas serves the node config schema registry plus the schemas the
// registered action collaborators publish. The editor builds its forms from
// this response.
func (h *APIHandlers) GetSchemas(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"node_types": models.AllSchemas(),
		"actions":    h.registry.ActionSchemas(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	persistenceCheck, ok := h.definitions.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":      status,
		"persistence": persistenceCheck,
		"actions":     h.registry.AvailableActions(),
	})
}
