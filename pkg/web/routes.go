package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts every API endpoint on the app. The same routing is
// shared by the api binary and the handler tests.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers) {
	p := app.Group("/playbooks")
	p.Get("/", handlers.GetPlaybooks)
	p.Post("/", handlers.CreatePlaybook)
	p.Post("/import", handlers.ImportPlaybook)
	p.Get("/:id", handlers.GetPlaybook)
	p.Get("/:id/export", handlers.ExportPlaybook)
	p.Patch("/:id", handlers.UpdatePlaybook)
	p.Delete("/:id", handlers.DeletePlaybook)

	p.Put("/:id/trigger", handlers.SetTrigger)

	p.Post("/:id/actions", handlers.AddAction)
	p.Patch("/:id/actions/:actionId", handlers.UpdateAction)
	p.Delete("/:id/actions/:actionId", handlers.RemoveAction)

	p.Post("/:id/knowledge-bases", handlers.BindKnowledgeBase)
	p.Patch("/:id/knowledge-bases/:kbId", handlers.ReprioritizeKnowledgeBase)
	p.Delete("/:id/knowledge-bases/:kbId", handlers.UnbindKnowledgeBase)

	p.Post("/:id/activate", handlers.ActivatePlaybook)
	p.Post("/:id/archive", handlers.ArchivePlaybook)
	p.Post("/:id/clone", handlers.ClonePlaybook)
	p.Get("/:id/validation", handlers.GetValidationReport)

	app.Post("/events/simulate", handlers.SimulateEvent)
	app.Get("/executors", handlers.GetExecutors)
	app.Get("/health", handlers.HealthCheck)
}
