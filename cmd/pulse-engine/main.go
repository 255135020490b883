// Package main provides the automation engine worker.
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/pulsedash/automation/pkg/cmd"
	"github.com/pulsedash/automation/pkg/engine"
	"github.com/pulsedash/automation/pkg/log"
	"github.com/pulsedash/automation/pkg/otelhelper"
	"github.com/pulsedash/automation/pkg/schedule"
)

func main() {
	command := &cli.Command{
		Name:                  "pulse-engine",
		Usage:                 "Run the automation engine: trigger matching, graph walks and the continuation sweep",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the continuation queue (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "gateway-url",
				Usage:   "Platform gateway base URL for the content publisher",
				Sources: cli.EnvVars("GATEWAY_URL"),
			},
			&cli.DurationFlag{
				Name:    "sweep-interval",
				Usage:   "Interval between continuation sweeps",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("SWEEP_INTERVAL"),
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

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "engine-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("pulse-engine").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Pulse Automation Engine")

			tracer, err := otelhelper.NewTracer(ctx, "pulse-engine")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			registry := cmd.NewRegistry(logger, command.String("gateway-url"))

			persistence := cmd.NewPersistence(ctx, logger,
				command.String("database-url"), command.String("redis-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			scheduler := schedule.NewScheduler(nil, logger)

			eng := engine.NewEngine(logger, persistence, registry, scheduler, engine.Options{
				Publisher: eventBus,
				Tracer:    tracer,
			})

			sweeper := engine.NewSweeper(eng, persistence.Continuations(),
				command.Duration("sweep-interval"), 0, logger)

			worker := NewEngineWorker(workerID, eng, sweeper, eventBus, logger)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start engine worker", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
