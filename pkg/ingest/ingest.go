// Package ingest accepts inbound platform webhook events: it validates the
// payload shape, enforces idempotency by external event ID and hands the
// event to the bus for the engine to consume.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/pulsedash/automation/pkg/eventbus"
	"github.com/pulsedash/automation/pkg/events"
	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/persistence"
)

var (
	// ErrInvalidPayload rejects events failing schema or struct validation.
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrDuplicateEvent rejects redelivery of an already accepted event.
	ErrDuplicateEvent = errors.New("event already accepted")
)

// dedupPrefix keeps ingest idempotency records apart from the engine's own
// processing claims in the shared store.
const dedupPrefix = "ingest:"

const eventSchema = `{
	"type": "object",
	"required": ["id", "tenant_id", "platform", "type"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"tenant_id": {"type": "string", "minLength": 1},
		"platform": {"enum": ["instagram", "facebook", "twitter", "linkedin", "tiktok"]},
		"type": {"enum": ["new_comment", "new_message", "mention", "new_follower", "reaction"]},
		"timestamp": {"type": "string", "format": "date-time"},
		"actor": {
			"type": "object",
			"properties": {
				"id": {"type": "string"},
				"username": {"type": "string"},
				"private": {"type": "boolean"}
			}
		},
		"payload": {"type": "string"},
		"metadata": {"type": "object"}
	}
}`

// Service is the ingestion front of the engine.
type Service struct {
	logger    *slog.Logger
	publisher eventbus.EventPublisher
	dedup     persistence.EventDedup
	schema    *gojsonschema.Schema
	validate  *validator.Validate
}

func NewService(logger *slog.Logger, publisher eventbus.EventPublisher, dedup persistence.EventDedup) (*Service, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("compile event schema: %w", err)
	}

	return &Service{
		logger:    logger.With("module", "ingest"),
		publisher: publisher,
		dedup:     dedup,
		schema:    schema,
		validate:  validator.New(),
	}, nil
}

// SubmitEvent accepts one raw webhook body. It returns the decoded event on
// success; a redelivered event ID returns ErrDuplicateEvent with no publish.
func (s *Service) SubmitEvent(ctx context.Context, raw []byte) (*models.Event, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, formatSchemaErrors(result))
	}

	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := s.validate.Struct(&event); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}

	fresh, err := s.dedup.MarkProcessed(ctx, dedupPrefix+event.ID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check for event %s: %w", event.ID, err)
	}

	if !fresh {
		return nil, fmt.Errorf("event %s: %w", event.ID, ErrDuplicateEvent)
	}

	platformEvent := events.PlatformEvent{
		BaseEvent: events.NewBaseEvent(events.PlatformEventReceived, "", event.TenantID),
		Event:     &event,
	}

	if err := s.publisher.Publish(ctx, event.TenantID, platformEvent); err != nil {
		return nil, fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	s.logger.InfoContext(ctx, "Event accepted",
		"event_id", event.ID, "tenant_id", event.TenantID,
		"platform", string(event.Platform), "event_type", string(event.Type))

	return &event, nil
}

func formatSchemaErrors(result *gojsonschema.Result) string {
	reasons := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		reasons = append(reasons, desc.String())
	}

	return strings.Join(reasons, "; ")
}
