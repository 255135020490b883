package protocol

import (
	"context"
	"time"

	"github.com/pulsedash/automation/pkg/models"
)

// BestTimeProvider computes the optimal posting time for a tenant on a
// platform. It is an external capability; when no provider is configured the
// scheduler falls back to queue-slot semantics and flags the resolution as
// degraded.
type BestTimeProvider interface {
	BestTime(ctx context.Context, tenantID string, after time.Time) (time.Time, error)
}

// SentimentAnalyzer classifies the tone of an event payload. Used to populate
// the account context consumed by trigger nodes with filter_negative set.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, payload string) (models.Sentiment, error)
}

// ContextLoader supplies the account context for an event: follower counts,
// actor engagement, location. Backed by the audience-metrics reader in
// production and by fixtures in tests.
type ContextLoader interface {
	Load(ctx context.Context, tenantID string, event *models.Event) (*models.AccountContext, error)
}
