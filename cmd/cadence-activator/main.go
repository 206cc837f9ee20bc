package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/cadencehq/cadence/pkg/cmd"
	"github.com/cadencehq/cadence/pkg/log"
	"github.com/cadencehq/cadence/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "cadence-activator",
		Usage:                 "Match inbound source events against active playbooks",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "activator-id",
				Aliases: []string{"id"},
				Usage:   "Custom activator ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("ACTIVATOR_ID"),
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
			&cli.StringFlag{
				Name:    "schedules-file",
				Usage:   "JSON file with cron schedule entries to host in this process",
				Sources: cli.EnvVars("SCHEDULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "webhooks-file",
				Usage:   "JSON file with webhook endpoints to host in this process",
				Sources: cli.EnvVars("WEBHOOKS_FILE"),
			},
			&cli.IntFlag{
				Name:    "webhook-port",
				Usage:   "Port for the hosted webhook listener",
				Value:   8085,
				Sources: cli.EnvVars("WEBHOOK_PORT"),
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

			_, err := otelhelper.NewTracer(ctx, "cadence-activator")
			if err != nil {
				slog.Warn("Tracing disabled", "error", err)
			}

			activatorID := command.String("activator-id")
			if activatorID == "" {
				activatorID = fmt.Sprintf("activator-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("cadence-activator").With("activator_id", activatorID)

			logger.InfoContext(ctx, "Initializing Cadence Activator")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "activator", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sourceEventBus := cmd.NewSourceEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := sourceEventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close source event bus", "error", err)
				}
			}()

			service := NewService(
				activatorID,
				persistence,
				eventBus,
				sourceEventBus,
				command.String("schedules-file"),
				command.Int("webhook-port"),
				command.String("webhooks-file"),
				logger,
			)

			service.Start(ctx)

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("cadence-activator exited", "error", err)
		os.Exit(1)
	}
}
