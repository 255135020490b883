package models

import "time"

// Actor is the platform user who caused an event.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Private  bool   `json:"private"`
}

// Event is an inbound occurrence from a social platform: a new comment,
// message, mention, follower or reaction. The engine snapshots the event on
// each Run it starts so suspended branches can evaluate it after resuming.
type Event struct {
	ID        string         `json:"id"        validate:"required"`
	TenantID  string         `json:"tenant_id" validate:"required"` // Account the event landed on
	Platform  Platform       `json:"platform"  validate:"required"`
	Type      EventType      `json:"type"      validate:"required"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     Actor          `json:"actor"`
	Payload   string         `json:"payload"` // Free-text body: comment text, message body, etc.
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Sentiment is a coarse classification supplied by an external capability.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUnknown  Sentiment = "unknown"
)

// AccountContext carries tenant-level aggregates used by condition
// evaluation: audience metrics for the account the event landed on, plus any
// externally computed signals like sentiment. Evaluation never mutates it.
type AccountContext struct {
	TenantID         string         `json:"tenant_id"`
	FollowerCount    int            `json:"follower_count"`
	FollowedAt       *time.Time     `json:"followed_at,omitempty"`       // When the actor followed, if known
	LastEngagementAt *time.Time     `json:"last_engagement_at,omitempty"` // Actor's last interaction with the account
	ActorEngagement  int            `json:"actor_engagement"`             // Interactions by the actor in the current period
	Location         string         `json:"location,omitempty"`
	Sentiment        Sentiment      `json:"sentiment,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"` // Extra named fields addressable by filter nodes
}
