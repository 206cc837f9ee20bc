// Package main provides the Cadence API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"

	"github.com/cadencehq/cadence/pkg/clients/openai"
	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/executors/ai"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/playbook"
	"github.com/cadencehq/cadence/pkg/registry"
	"github.com/cadencehq/cadence/pkg/web"
)

type API struct {
	logger         *slog.Logger
	persistence    persistence.Persistence
	registry       *registry.Registry
	eventBus       eventbus.EventBus
	sourceEventBus eventbus.SourceEventBus
	validate       *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	sourceEventBus eventbus.SourceEventBus,
) *API {
	return &API{
		logger:         logger,
		persistence:    persistence,
		registry:       registry,
		eventBus:       eventBus,
		sourceEventBus: sourceEventBus,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	store := playbook.NewStore(a.persistence, a.logger)
	repository := playbook.NewRepository(a.persistence, a.logger)

	handlers := web.NewAPIHandlers(store, repository, a.registry, a.validate, a.eventBus, a.sourceEventBus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Cadence API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}

// completionClient builds the generative backend when an API key is
// configured; without one, ai_generate actions are rejected at dispatch.
func completionClient(command *cli.Command) ai.CompletionClient {
	apiKey := command.String("openai-api-key")
	if apiKey == "" {
		return nil
	}

	return openai.NewClient(apiKey, "")
}
