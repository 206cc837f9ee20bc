package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/cadencehq/cadence/pkg/clients/openai"
	"github.com/cadencehq/cadence/pkg/cmd"
	"github.com/cadencehq/cadence/pkg/executors/ai"
	"github.com/cadencehq/cadence/pkg/log"
	"github.com/cadencehq/cadence/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "cadence-runner",
		Usage:                 "Execute triggered playbook runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "runner-id",
				Aliases: []string{"id"},
				Usage:   "Custom runner ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("RUNNER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.IntFlag{
				Name:    "max-attempts",
				Usage:   "Per-action retry budget",
				Value:   3,
				Sources: cli.EnvVars("MAX_ATTEMPTS"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the completion backend (optional)",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			tracer, err := otelhelper.NewTracer(ctx, "cadence-runner")
			if err != nil {
				slog.Warn("Tracing disabled", "error", err)
			}

			runnerID := command.String("runner-id")
			if runnerID == "" {
				runnerID = fmt.Sprintf("runner-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("cadence-runner").With("runner_id", runnerID)

			logger.InfoContext(ctx, "Initializing Cadence Runner")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "runner", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var completion ai.CompletionClient
			if apiKey := command.String("openai-api-key"); apiKey != "" {
				completion = openai.NewClient(apiKey, "")
			}

			registry := cmd.NewRegistry(logger, completion)

			worker := NewWorker(
				runnerID,
				persistence,
				registry,
				eventBus,
				command.Int("max-attempts"),
				tracer,
				logger,
			)

			worker.Start(ctx)

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("cadence-runner exited", "error", err)
		os.Exit(1)
	}
}
