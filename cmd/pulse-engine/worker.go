package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsedash/automation/pkg/engine"
	"github.com/pulsedash/automation/pkg/eventbus"
	"github.com/pulsedash/automation/pkg/events"
)

// EngineWorker consumes platform events from the bus, drives runs through
// the engine and sweeps due continuations.
type EngineWorker struct {
	id       string
	logger   *slog.Logger
	engine   *engine.Engine
	sweeper  *engine.Sweeper
	eventBus eventbus.EventBus
}

func NewEngineWorker(
	id string,
	eng *engine.Engine,
	sweeper *engine.Sweeper,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *EngineWorker {
	return &EngineWorker{
		id:       id,
		logger:   logger.With("module", "pulse-engine", "worker_id", id),
		engine:   eng,
		sweeper:  sweeper,
		eventBus: eventBus,
	}
}

func (w *EngineWorker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting engine worker")

	if err := w.eventBus.Handle(events.PlatformEventReceived, w.handlePlatformEvent); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go w.sweeper.Start(sweepCtx)

	w.logger.InfoContext(ctx, "Engine worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down engine worker...")

	cancel()
	time.Sleep(100 * time.Millisecond)

	return nil
}

func (w *EngineWorker) handlePlatformEvent(ctx context.Context, event any) error {
	platformEvent, ok := event.(*events.PlatformEvent)
	if !ok || platformEvent.Event == nil {
		w.logger.ErrorContext(ctx, "Invalid event type for PlatformEvent")

		return nil
	}

	logger := w.logger.With(
		"event_id", platformEvent.Event.ID,
		"tenant_id", platformEvent.Event.TenantID,
		"platform", string(platformEvent.Event.Platform),
	)

	runs, err := w.engine.HandleEvent(ctx, platformEvent.Event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to handle platform event", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Platform event processed", "runs_started", len(runs))

	return nil
}
