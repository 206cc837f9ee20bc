package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/playbook"
	"github.com/cadencehq/cadence/pkg/registry"
)

type APIHandlers struct {
	store        *playbook.Store
	repository   *playbook.Repository
	registry     *registry.Registry
	validator    *validator.Validate
	eventBus     eventbus.EventPublisher
	sourceEvents eventbus.SourceEventPublisher
}

func NewAPIHandlers(
	store *playbook.Store,
	repository *playbook.Repository,
	reg *registry.Registry,
	validate *validator.Validate,
	eventBus eventbus.EventPublisher,
	sourceEvents eventbus.SourceEventPublisher,
) *APIHandlers {
	return &APIHandlers{
		store:        store,
		repository:   repository,
		registry:     reg,
		validator:    validate,
		eventBus:     eventBus,
		sourceEvents: sourceEvents,
	}
}

func (h *APIHandlers) GetPlaybooks(c fiber.Ctx) error {
	opts, err := h.parseListOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.store.List(c.Context(), *opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"playbooks":     result.Playbooks,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  opts.Limit,
			"offset": opts.Offset,
		},
	})
}

func (h *APIHandlers) parseListOptions(c fiber.Ctx) (*persistence.ListPlaybooksOptions, error) {
	opts := &persistence.ListPlaybooksOptions{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		if offset < 0 {
			return nil, fmt.Errorf("offset must not be negative, got %d", offset)
		}

		opts.Offset = offset
	}

	opts.Owner = c.Query("owner")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.PlaybookStatus(statusStr)
		opts.Status = &status
	}

	opts.SortBy = c.Query("sort_by")
	opts.SortOrder = c.Query("sort_order")

	return opts, nil
}

func (h *APIHandlers) GetPlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	found, err := h.store.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreatePlaybook(c fiber.Ctx) error {
	var req CreatePlaybookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.store.Create(c.Context(), &models.Playbook{
		Name:              req.Name,
		Description:       req.Description,
		Owner:             req.Owner,
		Trigger:           req.Trigger,
		Actions:           req.Actions,
		KnowledgeBindings: req.Knowledge,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var req UpdatePlaybookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	updated, err := h.store.UpdateDetails(c.Context(), id, name, description, req.Metadata)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	err := h.store.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SetTrigger(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var trigger models.TriggerConfig
	if err := c.Bind().JSON(&trigger); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if !models.KnownTriggerType(trigger.Type) {
		return badRequest(c, "Unknown trigger type: "+string(trigger.Type))
	}

	updated, err := h.store.SetTrigger(c.Context(), id, &trigger)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) AddAction(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var action models.Action
	if err := c.Bind().JSON(&action); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(action); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.checkActionExecutable(&action); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.store.AddAction(c.Context(), id, &action)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(updated)
}

// checkActionExecutable rejects action types no executor can serve. Branch
// and end never dispatch, so they pass without a factory.
func (h *APIHandlers) checkActionExecutable(action *models.Action) error {
	if action.Type == models.ActionBranch || action.Type == models.ActionEnd {
		return nil
	}

	if !h.registry.IsExecutorRegistered(string(action.Type)) {
		return fmt.Errorf("unknown action type %q", action.Type)
	}

	return nil
}

func (h *APIHandlers) UpdateAction(c fiber.Ctx) error {
	id := c.Params("id")
	actionID := c.Params("actionId")

	if id == "" || actionID == "" {
		return badRequest(c, "Playbook ID and action ID are required")
	}

	var action models.Action
	if err := c.Bind().JSON(&action); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	action.ID = actionID

	if err := h.validator.Struct(action); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.checkActionExecutable(&action); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.store.UpdateAction(c.Context(), id, &action)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) RemoveAction(c fiber.Ctx) error {
	id := c.Params("id")
	actionID := c.Params("actionId")

	if id == "" || actionID == "" {
		return badRequest(c, "Playbook ID and action ID are required")
	}

	updated, err := h.store.RemoveAction(c.Context(), id, actionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) BindKnowledgeBase(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	var req BindKnowledgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.store.BindKnowledgeBase(c.Context(), id, models.KnowledgeBinding{
		KnowledgeBaseID: req.KnowledgeBaseID,
		Priority:        req.Priority,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(updated)
}

func (h *APIHandlers) ReprioritizeKnowledgeBase(c fiber.Ctx) error {
	id := c.Params("id")
	knowledgeBaseID := c.Params("kbId")

	if id == "" || knowledgeBaseID == "" {
		return badRequest(c, "Playbook ID and knowledge base ID are required")
	}

	var req ReprioritizeKnowledgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.store.ReprioritizeKnowledgeBase(c.Context(), id, knowledgeBaseID, req.Priority)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) UnbindKnowledgeBase(c fiber.Ctx) error {
	id := c.Params("id")
	knowledgeBaseID := c.Params("kbId")

	if id == "" || knowledgeBaseID == "" {
		return badRequest(c, "Playbook ID and knowledge base ID are required")
	}

	updated, err := h.store.UnbindKnowledgeBase(c.Context(), id, knowledgeBaseID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ActivatePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	activated, err := h.store.Activate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.publish(c, events.PlaybookActivated{
		BaseEvent:       events.NewBaseEvent(events.PlaybookActivatedEvent, activated.ID),
		PlaybookVersion: activated.Version,
	})

	return c.JSON(activated)
}

func (h *APIHandlers) ArchivePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	archived, err := h.store.Archive(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.publish(c, events.PlaybookArchived{
		BaseEvent:       events.NewBaseEvent(events.PlaybookArchivedEvent, archived.ID),
		PlaybookVersion: archived.Version,
	})

	return c.JSON(archived)
}

func (h *APIHandlers) ClonePlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	draft, err := h.store.CloneAsDraft(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(draft)
}

// ExportPlaybook returns the full playbook document for download. The export
// is the stored aggregate verbatim, so importing it reproduces the same
// definition.
func (h *APIHandlers) ExportPlaybook(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	found, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="playbook-`+found.ID+`.json"`)

	return c.JSON(found)
}

// ImportPlaybook creates a new draft from an exported playbook document.
// Identity and lifecycle fields are discarded: the import always gets a fresh
// ID, draft status and version 1.
func (h *APIHandlers) ImportPlaybook(c fiber.Ctx) error {
	var doc models.Playbook
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	doc.ID = ""

	created, err := h.store.Create(c.Context(), &doc)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetValidationReport(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Playbook ID is required")
	}

	issues, err := h.store.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if issues == nil {
		issues = []models.ValidationIssue{}
	}

	return c.JSON(ValidationReportResponse{
		PlaybookID: id,
		Valid:      len(issues) == 0,
		Issues:     issues,
	})
}

// SimulateEvent publishes a source event onto the bus as if a live source had
// emitted it. The activator picks it up through the normal matching path.
func (h *APIHandlers) SimulateEvent(c fiber.Ctx) error {
	var req SimulateEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sourceEvent := events.NewSourceEvent(req.SourceID, models.TriggerType(req.Category), req.Payload)

	err := sourceEvent.Validate()
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.sourceEvents.PublishSourceEvent(c.Context(), sourceEvent)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(sourceEvent)
}

// GetExecutors lists the registered executor types and their config schemas.
func (h *APIHandlers) GetExecutors(c fiber.Ctx) error {
	types := h.registry.AvailableExecutors()

	out := make([]ExecutorResponse, 0, len(types))

	for _, executorType := range types {
		schema, err := h.registry.ExecutorSchema(executorType)
		if err != nil {
			return internalError(c, err)
		}

		out = append(out, ExecutorResponse{Type: executorType, Schema: schema})
	}

	return c.JSON(out)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Cadence API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Cadence API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) publish(c fiber.Ctx, event eventbus.Event) {
	if h.eventBus == nil {
		return
	}

	// Lifecycle events are advisory; the mutation already committed.
	_ = h.eventBus.Publish(c.Context(), c.Params("id"), event)
}
