package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/playbook"
)

// validationProblem is an RFC 7807 problem carrying the full issue report so
// API clients can point at the offending nodes.
type validationProblem struct {
	*problems.Problem

	Issues []models.ValidationIssue `json:"issues,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps playbook service errors onto problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case playbook.IsNotFound(err):
		if errors.Is(err, playbook.ErrActionNotFound) {
			return notFound(c, "action not found")
		}

		if errors.Is(err, playbook.ErrBindingNotFound) {
			return notFound(c, "knowledge base binding not found")
		}

		return notFound(c, "playbook not found")

	case playbook.IsValidationError(err):
		issues, _ := playbook.IssuesFrom(err)

		problem := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
			WithInstance(c.Path()).
			WithType("validation_failed").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(validationProblem{
			Problem: problem,
			Issues:  issues,
		})

	case playbook.IsStateError(err):
		problem := problems.NewStatusProblem(fiber.StatusConflict).
			WithInstance(c.Path()).
			WithType("invalid_state_transition").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	default:
		return internalError(c, err)
	}
}
