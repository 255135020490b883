// Package conditions evaluates filter, audience and trigger node predicates
// against an incoming event and an account context. Evaluation is a pure
// function of its inputs, which keeps runs deterministic and replayable.
package conditions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulsedash/automation/pkg/models"
)

// Outcome is the result of evaluating a condition node.
type Outcome string

const (
	Match   Outcome = "match"
	NoMatch Outcome = "no_match"
)

// ErrTypeMismatch is returned when an ordering comparison receives a
// non-numeric operand. The engine treats it as a node-local failure that
// prunes the branch without failing the run.
var ErrTypeMismatch = errors.New("non-numeric operand for numeric comparison")

// newFollowerWindow bounds how recent a follow must be for the new_followers
// segment.
const newFollowerWindow = 7 * 24 * time.Hour

// inactiveAfter is the engagement silence after which an actor counts as
// inactive.
const inactiveAfter = 30 * 24 * time.Hour

// Evaluate applies the node's configured predicate to the event and context.
// Trigger nodes act as a precondition re-check here, not as the firing
// signal; the engine matches the firing trigger before a run exists.
func Evaluate(node *models.Node, event *models.Event, actx *models.AccountContext) (Outcome, error) {
	switch cfg := node.Config.(type) {
	case *models.FilterConfig:
		return evaluateFilter(cfg, event, actx)
	case *models.AudienceConfig:
		return evaluateAudience(cfg, event, actx), nil
	case *models.TriggerConfig:
		return evaluateTrigger(cfg, event, actx), nil
	default:
		return NoMatch, fmt.Errorf("node %s of type %s is not a condition node", node.ID, node.Type)
	}
}

func evaluateFilter(cfg *models.FilterConfig, event *models.Event, actx *models.AccountContext) (Outcome, error) {
	fieldValue, ok := lookupField(cfg.Field, event, actx)
	if !ok {
		return NoMatch, nil
	}

	switch cfg.Condition {
	case models.ConditionContains:
		return boolOutcome(containsFold(fieldValue, cfg.Value, cfg.CaseSensitive)), nil
	case models.ConditionNotContains:
		return boolOutcome(!containsFold(fieldValue, cfg.Value, cfg.CaseSensitive)), nil
	case models.ConditionEquals:
		return boolOutcome(equalsFold(fieldValue, cfg.Value, cfg.CaseSensitive)), nil
	case models.ConditionNotEquals:
		return boolOutcome(!equalsFold(fieldValue, cfg.Value, cfg.CaseSensitive)), nil
	case models.ConditionGreaterThan, models.ConditionLessThan:
		left, err := strconv.ParseFloat(strings.TrimSpace(fieldValue), 64)
		if err != nil {
			return NoMatch, fmt.Errorf("field %q value %q: %w", cfg.Field, fieldValue, ErrTypeMismatch)
		}

		right, err := strconv.ParseFloat(strings.TrimSpace(cfg.Value), 64)
		if err != nil {
			return NoMatch, fmt.Errorf("comparison value %q: %w", cfg.Value, ErrTypeMismatch)
		}

		if cfg.Condition == models.ConditionGreaterThan {
			return boolOutcome(left > right), nil
		}

		return boolOutcome(left < right), nil
	default:
		return NoMatch, fmt.Errorf("unsupported filter condition %q", cfg.Condition)
	}
}

func evaluateAudience(cfg *models.AudienceConfig, event *models.Event, actx *models.AccountContext) Outcome {
	if actx == nil {
		return NoMatch
	}

	if event.Actor.Private && !cfg.IncludePrivate {
		return NoMatch
	}

	if actx.ActorEngagement < cfg.MinEngagement {
		return NoMatch
	}

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch cfg.SegmentType {
	case models.SegmentAllFollowers:
		return Match
	case models.SegmentNewFollowers:
		if actx.FollowedAt == nil {
			return NoMatch
		}

		return boolOutcome(now.Sub(*actx.FollowedAt) <= newFollowerWindow)
	case models.SegmentEngaged:
		if actx.LastEngagementAt == nil {
			return NoMatch
		}

		return boolOutcome(now.Sub(*actx.LastEngagementAt) < inactiveAfter)
	case models.SegmentInactive:
		if actx.LastEngagementAt == nil {
			return Match
		}

		return boolOutcome(now.Sub(*actx.LastEngagementAt) >= inactiveAfter)
	case models.SegmentCustom:
		if cfg.Location == "" {
			return Match
		}

		return boolOutcome(strings.EqualFold(actx.Location, cfg.Location))
	default:
		return NoMatch
	}
}

func evaluateTrigger(cfg *models.TriggerConfig, event *models.Event, actx *models.AccountContext) Outcome {
	if event.Platform != cfg.Platform || event.Type != cfg.EventType {
		return NoMatch
	}

	if cfg.FilterNegative && actx != nil && actx.Sentiment == models.SentimentNegative {
		return NoMatch
	}

	if len(cfg.Keywords) == 0 {
		return Match
	}

	payload := strings.ToLower(event.Payload)

	for _, keyword := range cfg.Keywords {
		if keyword == "" {
			continue
		}

		if strings.Contains(payload, strings.ToLower(keyword)) {
			return Match
		}
	}

	return NoMatch
}

// lookupField resolves a filter field name against the event and context.
// Well-known names map to typed fields; anything else falls through to the
// context field bag and event metadata.
func lookupField(name string, event *models.Event, actx *models.AccountContext) (string, bool) {
	switch strings.ToLower(name) {
	case "message", "payload", "text":
		return event.Payload, true
	case "platform":
		return string(event.Platform), true
	case "event_type", "type":
		return string(event.Type), true
	case "actor", "username":
		return event.Actor.Username, true
	case "actor_id":
		return event.Actor.ID, true
	}

	if actx != nil {
		switch strings.ToLower(name) {
		case "follower_count":
			return strconv.Itoa(actx.FollowerCount), true
		case "engagement", "actor_engagement":
			return strconv.Itoa(actx.ActorEngagement), true
		case "location":
			return actx.Location, true
		case "sentiment":
			return string(actx.Sentiment), true
		}

		if v, ok := actx.Fields[name]; ok {
			return v, true
		}
	}

	if v, ok := event.Metadata[name]; ok {
		return fmt.Sprintf("%v", v), true
	}

	return "", false
}

func containsFold(haystack, needle string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(haystack, needle)
	}

	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func equalsFold(left, right string, caseSensitive bool) bool {
	if caseSensitive {
		return left == right
	}

	return strings.EqualFold(left, right)
}

func boolOutcome(matched bool) Outcome {
	if matched {
		return Match
	}

	return NoMatch
}
