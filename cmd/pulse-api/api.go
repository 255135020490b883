// Package main provides the automation API server.
package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/pulsedash/automation/pkg/engine"
	"github.com/pulsedash/automation/pkg/eventbus"
	"github.com/pulsedash/automation/pkg/ingest"
	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/registry"
	"github.com/pulsedash/automation/pkg/schedule"
	"github.com/pulsedash/automation/pkg/services"
	"github.com/pulsedash/automation/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
	}
}

func (a *API) App() (*fiber.App, error) {
	definitionService := services.NewDefinitions(a.persistence)

	ingestService, err := ingest.NewService(a.logger, a.eventBus, a.persistence.EventDedup())
	if err != nil {
		return nil, fmt.Errorf("create ingest service: %w", err)
	}

	// The API embeds an engine only for run cancellation; event-driven run
	// starts live in pulse-engine.
	eng := engine.NewEngine(a.logger, a.persistence, a.registry,
		schedule.NewScheduler(nil, a.logger), engine.Options{Publisher: a.eventBus})

	handlers := web.NewAPIHandlers(definitionService, eng, ingestService, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Pulse Automation API")
	})

	d := app.Group("/definitions")
	d.Get("/", handlers.GetDefinitions)
	d.Post("/", handlers.CreateDefinition)
	d.Get("/:id", handlers.GetDefinition)
	d.Patch("/:id", handlers.UpdateDefinition)
	d.Delete("/:id", handlers.DeleteDefinition)
	d.Post("/:id/validate", handlers.ValidateDefinition)
	d.Post("/:id/activate", handlers.ActivateDefinition)
	d.Post("/:id/pause", handlers.PauseDefinition)
	d.Post("/:id/resume", handlers.ResumeDefinition)
	d.Post("/:id/archive", handlers.ArchiveDefinition)
	d.Post("/:id/clone", handlers.CloneDefinition)
	d.Get("/:id/runs", handlers.GetRuns)

	r := app.Group("/runs")
	r.Get("/:id", handlers.GetRun)
	r.Post("/:id/cancel", handlers.CancelRun)

	app.Post("/events", handlers.SubmitEvent)
	app.Get("/schemas", handlers.GetSchemas)
	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
