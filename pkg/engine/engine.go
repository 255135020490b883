// Package engine runs workflow definitions: it matches inbound platform
// events against active definitions, walks the node graph breadth-first,
// suspends scheduled branches as persisted continuations and drives runs to
// a terminal status.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulsedash/automation/pkg/conditions"
	"github.com/pulsedash/automation/pkg/eventbus"
	"github.com/pulsedash/automation/pkg/events"
	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/otelhelper"
	"github.com/pulsedash/automation/pkg/persistence"
	"github.com/pulsedash/automation/pkg/protocol"
	"github.com/pulsedash/automation/pkg/registry"
	"github.com/pulsedash/automation/pkg/schedule"
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultNodeTimeout = 30 * time.Second
)

// Options tunes engine behavior and injects the optional capabilities.
type Options struct {
	MaxAttempts int
	BaseBackoff time.Duration
	NodeTimeout time.Duration

	Sentiment protocol.SentimentAnalyzer
	Contexts  protocol.ContextLoader
	Publisher eventbus.EventPublisher
	Tracer    trace.Tracer

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the run state machine. Safe for concurrent use; every run walk
// is independent and shares only the persistence layer.
type Engine struct {
	logger    *slog.Logger
	store     persistence.Persistence
	registry  *registry.Registry
	scheduler *schedule.Scheduler

	sentiment protocol.SentimentAnalyzer
	contexts  protocol.ContextLoader
	publisher eventbus.EventPublisher
	tracer    trace.Tracer

	maxAttempts int
	baseBackoff time.Duration
	nodeTimeout time.Duration
	now         func() time.Time
}

func NewEngine(logger *slog.Logger, store persistence.Persistence, reg *registry.Registry, scheduler *schedule.Scheduler, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}

	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}

	if opts.NodeTimeout <= 0 {
		opts.NodeTimeout = defaultNodeTimeout
	}

	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now() }
	}

	return &Engine{
		logger:      logger.With("module", "engine"),
		store:       store,
		registry:    reg,
		scheduler:   scheduler,
		sentiment:   opts.Sentiment,
		contexts:    opts.Contexts,
		publisher:   opts.Publisher,
		tracer:      opts.Tracer,
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
		nodeTimeout: opts.NodeTimeout,
		now:         opts.Now,
	}
}

// HandleEvent matches one inbound platform event against every active
// definition of its tenant and starts a run per matching trigger node. The
// event ID is claimed first, so redelivered events start no second run.
func (e *Engine) HandleEvent(ctx context.Context, event *models.Event) ([]*models.Run, error) {
	logger := e.logger.With("event_id", event.ID, "platform", string(event.Platform), "event_type", string(event.Type))

	fresh, err := e.store.EventDedup().MarkProcessed(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("claim event %s: %w", event.ID, err)
	}

	if !fresh {
		logger.Info("Event already processed, skipping")

		return nil, nil
	}

	defs, err := e.store.Definitions().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active definitions: %w", err)
	}

	actx := e.loadContext(ctx, event.TenantID, event)

	started := []*models.Run{}

	for _, def := range defs {
		if def.TenantID != event.TenantID {
			continue
		}

		for _, trigger := range def.TriggerNodes() {
			outcome, err := conditions.Evaluate(trigger, event, actx)
			if err != nil || outcome != conditions.Match {
				continue
			}

			run, err := e.startRun(ctx, def, trigger.ID, models.OriginEvent, event, actx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start run",
					"definition_id", def.ID, "trigger_node_id", trigger.ID, "error", err)

				continue
			}

			started = append(started, run)
		}
	}

	return started, nil
}

// Cancel cancels a live run: pending continuations become no-ops and their
// nodes are recorded as skipped.
func (e *Engine) Cancel(ctx context.Context, runID, cancelledBy string) error {
	run, err := e.store.Runs().GetRun(ctx, runID)
	if err != nil {
		return err
	}

	if run.Status.Terminal() {
		return persistence.NewRunError("Cancel", runID, persistence.ErrRunTerminal)
	}

	removed, err := e.store.Continuations().RemoveByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("remove continuations of run %s: %w", runID, err)
	}

	for _, c := range removed {
		outcome := models.NodeOutcome{
			NodeID:    c.NodeID,
			Status:    models.OutcomeSkipped,
			Timestamp: e.now().UTC(),
			Detail:    "run cancelled before scheduled fire",
		}

		if err := e.store.Runs().AppendOutcome(ctx, runID, outcome); err != nil {
			return err
		}
	}

	if err := e.store.Runs().UpdateStatus(ctx, runID, models.RunStatusCancelled, ""); err != nil {
		return err
	}

	e.publish(ctx, run.DefinitionID, events.RunCancelled{
		BaseEvent:   events.NewBaseEvent(events.RunCancelledEvent, run.DefinitionID, run.TenantID),
		RunID:       runID,
		CancelledBy: cancelledBy,
	})

	e.logger.InfoContext(ctx, "Run cancelled", "run_id", runID, "skipped_branches", len(removed))

	return nil
}

// ResumeContinuation fires one due continuation. Continuations of terminal
// runs are dropped silently; a continuation without a run ID re-fires a
// recurring schedule node as a fresh run.
func (e *Engine) ResumeContinuation(ctx context.Context, c models.Continuation) error {
	if c.RunID == "" {
		return e.startRecurrence(ctx, c)
	}

	run, err := e.store.Runs().GetRun(ctx, c.RunID)
	if err != nil {
		if persistence.IsRunNotFound(err) {
			e.logger.WarnContext(ctx, "Continuation for unknown run, dropping", "run_id", c.RunID)

			return nil
		}

		return err
	}

	if run.Status.Terminal() {
		e.logger.InfoContext(ctx, "Continuation for terminal run, dropping",
			"run_id", c.RunID, "status", string(run.Status))

		return nil
	}

	def, err := e.store.Definitions().GetByID(ctx, c.DefinitionID)
	if err != nil {
		return e.failRun(ctx, run, fmt.Sprintf("definition %s unavailable on resume: %v", c.DefinitionID, err))
	}

	node := def.NodeByID(c.NodeID)
	if node == nil {
		return e.failRun(ctx, run, fmt.Sprintf("node %s missing from definition %s on resume", c.NodeID, c.DefinitionID))
	}

	detail := "schedule fired"
	if c.Degraded {
		detail = "schedule fired (degraded best-time resolution)"
	}

	outcome := models.NodeOutcome{
		NodeID:    c.NodeID,
		Status:    models.OutcomeExecuted,
		Timestamp: e.now().UTC(),
		Detail:    detail,
	}

	if err := e.store.Runs().AppendOutcome(ctx, c.RunID, outcome); err != nil {
		return err
	}

	w := &walker{
		engine: e,
		def:    def,
		run:    run,
		event:  e.eventForRun(run),
		actx:   e.loadContext(ctx, run.TenantID, run.TriggerEvent),
		logger: e.logger.With("run_id", run.ID, "definition_id", def.ID),
	}

	if err := w.walk(ctx, childIDs(def, c.NodeID)); err != nil {
		return e.failRun(ctx, run, err.Error())
	}

	if err := e.rearmRecurrence(ctx, def, node, c); err != nil {
		e.logger.ErrorContext(ctx, "Failed to re-arm recurrence", "node_id", node.ID, "error", err)
	}

	return e.completeIfQuiet(ctx, run, def)
}

// startRecurrence begins a fresh schedule-origin run at a recurring schedule
// node.
func (e *Engine) startRecurrence(ctx context.Context, c models.Continuation) error {
	def, err := e.store.Definitions().GetByID(ctx, c.DefinitionID)
	if err != nil {
		if persistence.IsDefinitionNotFound(err) {
			e.logger.WarnContext(ctx, "Recurrence for deleted definition, dropping", "definition_id", c.DefinitionID)

			return nil
		}

		return err
	}

	if def.Status != models.DefinitionStatusActive {
		e.logger.InfoContext(ctx, "Recurrence for inactive definition, dropping",
			"definition_id", def.ID, "status", string(def.Status))

		return nil
	}

	node := def.NodeByID(c.NodeID)
	if node == nil {
		e.logger.WarnContext(ctx, "Recurrence node missing, dropping", "node_id", c.NodeID)

		return nil
	}

	run := models.NewRun(def, c.NodeID, models.OriginSchedule, "")

	if err := e.store.Runs().SaveRun(ctx, run); err != nil {
		return err
	}

	e.publish(ctx, def.ID, events.RunStarted{
		BaseEvent:     events.NewBaseEvent(events.RunStartedEvent, def.ID, def.TenantID),
		RunID:         run.ID,
		TriggerNodeID: c.NodeID,
		Origin:        models.OriginSchedule,
	})

	if err := e.store.Runs().UpdateStatus(ctx, run.ID, models.RunStatusEvaluating, ""); err != nil {
		return err
	}

	outcome := models.NodeOutcome{
		NodeID:    c.NodeID,
		Status:    models.OutcomeExecuted,
		Timestamp: e.now().UTC(),
		Detail:    "recurring schedule fired",
	}

	if err := e.store.Runs().AppendOutcome(ctx, run.ID, outcome); err != nil {
		return err
	}

	w := &walker{
		engine: e,
		def:    def,
		run:    run,
		event:  e.eventForRun(run),
		actx:   e.loadContext(ctx, run.TenantID, nil),
		logger: e.logger.With("run_id", run.ID, "definition_id", def.ID),
	}

	if err := w.walk(ctx, childIDs(def, c.NodeID)); err != nil {
		return e.failRun(ctx, run, err.Error())
	}

	if err := e.rearmRecurrence(ctx, def, node, c); err != nil {
		e.logger.ErrorContext(ctx, "Failed to re-arm recurrence", "node_id", node.ID, "error", err)
	}

	return e.completeIfQuiet(ctx, run, def)
}

func (e *Engine) startRun(ctx context.Context, def *models.WorkflowDefinition, triggerNodeID string, origin models.RunOrigin, event *models.Event, actx *models.AccountContext) (*models.Run, error) {
	eventID := ""
	if event != nil {
		eventID = event.ID
	}

	run := models.NewRun(def, triggerNodeID, origin, eventID)
	run.TriggerEvent = event

	ctx, span := e.startSpan(ctx, "engine.run", def, run)
	defer span.End()

	if err := e.store.Runs().SaveRun(ctx, run); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	e.publish(ctx, def.ID, events.RunStarted{
		BaseEvent:     events.NewBaseEvent(events.RunStartedEvent, def.ID, def.TenantID),
		RunID:         run.ID,
		TriggerNodeID: triggerNodeID,
		Origin:        origin,
		EventID:       eventID,
	})

	if err := e.store.Runs().UpdateStatus(ctx, run.ID, models.RunStatusEvaluating, ""); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	w := &walker{
		engine: e,
		def:    def,
		run:    run,
		event:  event,
		actx:   actx,
		logger: e.logger.With("run_id", run.ID, "definition_id", def.ID),
	}

	if err := w.walk(ctx, []string{triggerNodeID}); err != nil {
		otelhelper.SetError(span, err)

		return run, e.failRun(ctx, run, err.Error())
	}

	if err := e.completeIfQuiet(ctx, run, def); err != nil {
		otelhelper.SetError(span, err)

		return run, err
	}

	return run, nil
}

// completeIfQuiet settles a run once no branch remains suspended: Failed
// when a terminal node's action was exhausted, Completed otherwise.
// Evaluator and scheduler errors only pruned their branch, so they never
// reach here as failed terminal outcomes.
func (e *Engine) completeIfQuiet(ctx context.Context, run *models.Run, def *models.WorkflowDefinition) error {
	pending, err := e.store.Continuations().CountByRun(ctx, run.ID)
	if err != nil {
		return err
	}

	if pending > 0 {
		e.logger.InfoContext(ctx, "Run has suspended branches, staying live",
			"run_id", run.ID, "pending", pending)

		return nil
	}

	current, err := e.store.Runs().GetRun(ctx, run.ID)
	if err != nil {
		return err
	}

	if current.Status.Terminal() {
		return nil
	}

	for _, outcome := range current.Outcomes {
		if outcome.Status != models.OutcomeFailed {
			continue
		}

		node := def.NodeByID(outcome.NodeID)
		if node == nil || !node.IsTerminalType() {
			continue
		}

		return e.failRun(ctx, current,
			fmt.Sprintf("terminal node %s: %s", outcome.NodeID, outcome.Detail))
	}

	if err := e.store.Runs().UpdateStatus(ctx, run.ID, models.RunStatusCompleted, ""); err != nil {
		return err
	}

	e.publish(ctx, run.DefinitionID, events.RunCompleted{
		BaseEvent:     events.NewBaseEvent(events.RunCompletedEvent, run.DefinitionID, run.TenantID),
		RunID:         run.ID,
		DurationMs:    e.now().Sub(run.StartedAt).Milliseconds(),
		NodesResolved: len(current.Outcomes),
	})

	return nil
}

func (e *Engine) failRun(ctx context.Context, run *models.Run, cause string) error {
	if err := e.store.Runs().UpdateStatus(ctx, run.ID, models.RunStatusFailed, cause); err != nil {
		return err
	}

	if _, err := e.store.Continuations().RemoveByRun(ctx, run.ID); err != nil {
		e.logger.ErrorContext(ctx, "Failed to drop continuations of failed run", "run_id", run.ID, "error", err)
	}

	e.publish(ctx, run.DefinitionID, events.RunFailed{
		BaseEvent:  events.NewBaseEvent(events.RunFailedEvent, run.DefinitionID, run.TenantID),
		RunID:      run.ID,
		Cause:      cause,
		DurationMs: e.now().Sub(run.StartedAt).Milliseconds(),
	})

	e.logger.ErrorContext(ctx, "Run failed", "run_id", run.ID, "cause", cause)

	return nil
}

// rearmRecurrence pushes the next firing of a recurring schedule node as a
// run-less continuation.
func (e *Engine) rearmRecurrence(ctx context.Context, def *models.WorkflowDefinition, node *models.Node, fired models.Continuation) error {
	cfg, ok := node.Config.(*models.ScheduleConfig)
	if !ok {
		return nil
	}

	next, recurring, err := schedule.NextRecurrence(cfg, fired.FireAt)
	if err != nil {
		return err
	}

	if !recurring {
		return nil
	}

	return e.store.Continuations().Push(ctx, models.Continuation{
		NodeID:       node.ID,
		DefinitionID: def.ID,
		FireAt:       next,
	})
}

// loadContext resolves the account context for condition evaluation. The
// sentiment capability fills in the tone when the loader left it unset.
func (e *Engine) loadContext(ctx context.Context, tenantID string, event *models.Event) *models.AccountContext {
	actx := &models.AccountContext{TenantID: tenantID}

	if e.contexts != nil && event != nil {
		loaded, err := e.contexts.Load(ctx, tenantID, event)
		if err != nil {
			e.logger.WarnContext(ctx, "Context loader failed, using empty context",
				"tenant_id", tenantID, "error", err)
		} else if loaded != nil {
			actx = loaded
		}
	}

	if e.sentiment != nil && event != nil && actx.Sentiment == "" {
		sentiment, err := e.sentiment.Analyze(ctx, event.Payload)
		if err != nil {
			e.logger.WarnContext(ctx, "Sentiment analysis failed", "error", err)
		} else {
			actx.Sentiment = sentiment
		}
	}

	return actx
}

// eventForRun restores the event a resumed branch evaluates against. Runs
// started by an event carry a snapshot of it; schedule-origin runs have none
// and get an empty event scoped to the tenant.
func (e *Engine) eventForRun(run *models.Run) *models.Event {
	if run.TriggerEvent != nil {
		return run.TriggerEvent
	}

	return &models.Event{
		ID:       run.TriggerEventID,
		TenantID: run.TenantID,
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", string(event.GetType()), "error", err)
	}
}

func (e *Engine) startSpan(ctx context.Context, name string, def *models.WorkflowDefinition, run *models.Run) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return otelhelper.StartSpan(ctx, e.tracer, name,
		attribute.String(otelhelper.DefinitionIDKey, def.ID),
		attribute.String(otelhelper.TenantIDKey, def.TenantID),
		attribute.String(otelhelper.RunIDKey, run.ID),
	)
}

func childIDs(def *models.WorkflowDefinition, nodeID string) []string {
	edges := def.OutgoingEdges(nodeID)

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.TargetNodeID)
	}

	return ids
}

// walker carries the per-run state of one breadth-first graph walk. Nodes of
// one level run concurrently; levels are processed in order, so a node never
// runs before the node that reached it.
type walker struct {
	engine *Engine
	def    *models.WorkflowDefinition
	run    *models.Run
	event  *models.Event
	actx   *models.AccountContext
	logger *slog.Logger

	mu      sync.Mutex
	visited map[string]bool
}

// walk processes the graph level by level. The returned error is always
// engine-internal (store or graph corruption); node-local failures only
// prune their branch.
func (w *walker) walk(ctx context.Context, frontier []string) error {
	w.visited = make(map[string]bool, len(w.def.Nodes))

	for len(frontier) > 0 {
		var (
			wg      sync.WaitGroup
			next    []string
			walkErr error
		)

		for _, nodeID := range frontier {
			if w.visited[nodeID] {
				continue
			}

			w.visited[nodeID] = true

			wg.Add(1)

			go func(nodeID string) {
				defer wg.Done()

				children, err := w.processNode(ctx, nodeID)

				w.mu.Lock()
				defer w.mu.Unlock()

				if err != nil && walkErr == nil {
					walkErr = err
				}

				next = append(next, children...)
			}(nodeID)
		}

		wg.Wait()

		if walkErr != nil {
			return walkErr
		}

		frontier = next
	}

	return nil
}

// processNode resolves one node and returns the node IDs the walk proceeds
// to. An empty result prunes the branch.
func (w *walker) processNode(ctx context.Context, nodeID string) ([]string, error) {
	node := w.def.NodeByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %s missing from definition %s", nodeID, w.def.ID)
	}

	switch node.Type {
	case models.NodeTypeTrigger, models.NodeTypeFilter, models.NodeTypeAudience:
		return w.processCondition(ctx, node)
	case models.NodeTypeSchedule:
		return w.processSchedule(ctx, node)
	case models.NodeTypeContent, models.NodeTypeAnalytics:
		return w.processAction(ctx, node)
	default:
		return nil, fmt.Errorf("node %s has unknown type %q", nodeID, node.Type)
	}
}

func (w *walker) processCondition(ctx context.Context, node *models.Node) ([]string, error) {
	outcome, err := conditions.Evaluate(node, w.event, w.actx)
	if err != nil {
		w.logger.WarnContext(ctx, "Condition evaluation failed, pruning branch",
			"node_id", node.ID, "error", err)

		return nil, w.record(ctx, node.ID, models.OutcomeFailed, err.Error())
	}

	if outcome != conditions.Match {
		return nil, w.record(ctx, node.ID, models.OutcomeSkipped, "")
	}

	if err := w.record(ctx, node.ID, models.OutcomeMatched, ""); err != nil {
		return nil, err
	}

	return childIDs(w.def, node.ID), nil
}

func (w *walker) processSchedule(ctx context.Context, node *models.Node) ([]string, error) {
	now := w.engine.now()

	res, err := w.engine.scheduler.Resolve(ctx, w.run.TenantID, node, now)
	if err != nil {
		w.logger.WarnContext(ctx, "Schedule resolution failed, pruning branch",
			"node_id", node.ID, "error", err)

		return nil, w.record(ctx, node.ID, models.OutcomeFailed, err.Error())
	}

	if !res.FireAt.After(now) {
		if err := w.record(ctx, node.ID, models.OutcomeExecuted, res.Detail); err != nil {
			return nil, err
		}

		return childIDs(w.def, node.ID), nil
	}

	c := models.Continuation{
		RunID:        w.run.ID,
		NodeID:       node.ID,
		DefinitionID: w.def.ID,
		FireAt:       res.FireAt,
		Degraded:     res.Degraded,
	}

	if err := w.engine.store.Continuations().Push(ctx, c); err != nil {
		return nil, fmt.Errorf("suspend branch at node %s: %w", node.ID, err)
	}

	w.engine.publish(ctx, w.def.ID, events.BranchSuspended{
		BaseEvent: events.NewBaseEvent(events.BranchSuspendedEvent, w.def.ID, w.run.TenantID),
		RunID:     w.run.ID,
		NodeID:    node.ID,
		FireAt:    res.FireAt,
		Degraded:  res.Degraded,
	})

	w.logger.InfoContext(ctx, "Branch suspended",
		"node_id", node.ID, "fire_at", res.FireAt, "degraded", res.Degraded)

	return nil, nil
}

func (w *walker) processAction(ctx context.Context, node *models.Node) ([]string, error) {
	action, err := w.engine.registry.CreateAction(node.Type)
	if err != nil {
		w.logger.WarnContext(ctx, "No action for node, pruning branch", "node_id", node.ID, "error", err)

		return nil, w.record(ctx, node.ID, models.OutcomeFailed, err.Error())
	}

	started := w.engine.now()

	output, attempts, err := w.executeWithRetry(ctx, action, node)
	if err != nil {
		if recordErr := w.record(ctx, node.ID, models.OutcomeFailed,
			fmt.Sprintf("action failed after %d attempts: %v", attempts, err)); recordErr != nil {
			return nil, recordErr
		}

		w.engine.publish(ctx, w.def.ID, events.NodeFailed{
			BaseEvent: events.NewBaseEvent(events.NodeFailedEvent, w.def.ID, w.run.TenantID),
			RunID:     w.run.ID,
			NodeID:    node.ID,
			NodeType:  node.Type,
			Error:     err.Error(),
			Attempts:  attempts,
		})

		return nil, nil
	}

	if err := w.record(ctx, node.ID, models.OutcomeExecuted, ""); err != nil {
		return nil, err
	}

	w.engine.publish(ctx, w.def.ID, events.NodeExecuted{
		BaseEvent:  events.NewBaseEvent(events.NodeExecutedEvent, w.def.ID, w.run.TenantID),
		RunID:      w.run.ID,
		NodeID:     node.ID,
		NodeType:   node.Type,
		Output:     output,
		DurationMs: w.engine.now().Sub(started).Milliseconds(),
	})

	return childIDs(w.def, node.ID), nil
}

// executeWithRetry invokes a collaborator with a per-attempt deadline and
// bounded exponential backoff between attempts.
func (w *walker) executeWithRetry(ctx context.Context, action protocol.Action, node *models.Node) (map[string]any, int, error) {
	var lastErr error

	backoff := w.engine.baseBackoff

	for attempt := 1; attempt <= w.engine.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, w.engine.nodeTimeout)
		output, err := action.Execute(attemptCtx, node, w.event, w.actx)

		cancel()

		if err == nil {
			return output, attempt, nil
		}

		lastErr = err

		w.logger.WarnContext(ctx, "Action attempt failed",
			"node_id", node.ID, "attempt", attempt, "error", err)

		if attempt == w.engine.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return nil, w.engine.maxAttempts, lastErr
}

func (w *walker) record(ctx context.Context, nodeID string, status models.OutcomeStatus, detail string) error {
	outcome := models.NodeOutcome{
		NodeID:    nodeID,
		Status:    status,
		Timestamp: w.engine.now().UTC(),
		Detail:    detail,
	}

	return w.engine.store.Runs().AppendOutcome(ctx, w.run.ID, outcome)
}
