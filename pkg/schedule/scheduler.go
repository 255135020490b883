// Package schedule resolves when content and action nodes fire: immediately,
// in the next queue slot, at a specific time, or at an externally computed
// best time.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pulsedash/automation/pkg/models"
	"github.com/pulsedash/automation/pkg/protocol"
)

// ErrSchedule is returned when a fire time cannot be resolved. The engine
// records it and leaves the node armed for manual retry; a recurrence is
// never silently dropped.
var ErrSchedule = errors.New("schedule resolution failed")

// slotWindow is a fixed local-time posting window.
type slotWindow struct {
	startHour int
	endHour   int // exclusive
}

var slotWindows = map[models.QueueSlot]slotWindow{
	models.SlotMorning:   {startHour: 6, endHour: 12},
	models.SlotMidday:    {startHour: 12, endHour: 15},
	models.SlotAfternoon: {startHour: 15, endHour: 18},
	models.SlotEvening:   {startHour: 18, endHour: 23},
}

// Resolution is the outcome of resolving one schedule node.
type Resolution struct {
	FireAt   time.Time `json:"fire_at"`
	Degraded bool      `json:"degraded"` // Best-time fell back to queue semantics
	Detail   string    `json:"detail,omitempty"`
}

// Scheduler resolves schedule node fire times. The best-time capability is
// optional; everything else is computed locally.
type Scheduler struct {
	bestTime protocol.BestTimeProvider
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. bestTime may be nil, in which case
// best_time schedules degrade to queue semantics.
func NewScheduler(bestTime protocol.BestTimeProvider, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		bestTime: bestTime,
		logger:   logger.With("module", "scheduler"),
	}
}

// Resolve computes the fire time for a schedule node relative to now. The
// returned time is never before now.
func (s *Scheduler) Resolve(ctx context.Context, tenantID string, node *models.Node, now time.Time) (Resolution, error) {
	cfg, ok := node.Config.(*models.ScheduleConfig)
	if !ok {
		return Resolution{}, fmt.Errorf("node %s is not a schedule node: %w", node.ID, ErrSchedule)
	}

	switch cfg.ScheduleType {
	case models.ScheduleImmediate:
		return Resolution{FireAt: now}, nil

	case models.ScheduleQueue:
		fireAt, err := nextSlotTime(cfg.QueueSlot, now)
		if err != nil {
			return Resolution{}, err
		}

		return Resolution{FireAt: fireAt}, nil

	case models.ScheduleSpecificTime:
		if cfg.TargetTime == nil {
			return Resolution{}, fmt.Errorf("schedule node %s has no target time: %w", node.ID, ErrSchedule)
		}

		fireAt := cfg.TargetTime.Add(time.Duration(cfg.DelayMinutes) * time.Minute)
		if fireAt.Before(now) {
			fireAt = now
		}

		return Resolution{FireAt: fireAt}, nil

	case models.ScheduleBestTime:
		return s.resolveBestTime(ctx, tenantID, cfg, node, now)

	default:
		return Resolution{}, fmt.Errorf("unknown schedule type %q on node %s: %w", cfg.ScheduleType, node.ID, ErrSchedule)
	}
}

func (s *Scheduler) resolveBestTime(ctx context.Context, tenantID string, cfg *models.ScheduleConfig, node *models.Node, now time.Time) (Resolution, error) {
	if s.bestTime != nil {
		fireAt, err := s.bestTime.BestTime(ctx, tenantID, now)
		if err == nil {
			if fireAt.Before(now) {
				fireAt = now
			}

			return Resolution{FireAt: fireAt}, nil
		}

		s.logger.WarnContext(ctx, "Best-time provider failed, falling back to queue slot",
			"node_id", node.ID, "error", err)
	}

	slot := cfg.QueueSlot
	if slot == "" {
		slot = models.SlotMorning
	}

	fireAt, err := nextSlotTime(slot, now)
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{
		FireAt:   fireAt,
		Degraded: true,
		Detail:   "best-time capability unavailable, used queue slot " + string(slot),
	}, nil
}

// nextSlotTime returns now when now already lies inside the slot window, and
// otherwise the next window start strictly after now.
func nextSlotTime(slot models.QueueSlot, now time.Time) (time.Time, error) {
	window, ok := slotWindows[slot]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown queue slot %q: %w", slot, ErrSchedule)
	}

	hour := now.Hour()
	if hour >= window.startHour && hour < window.endHour {
		return now, nil
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), window.startHour, 0, 0, 0, now.Location())
	if !start.After(now) {
		start = start.AddDate(0, 0, 1)
	}

	return start, nil
}

// NextRecurrence computes the next fire time of a recurring schedule after a
// run completes. The second return is false for once-only schedules. The
// recurrence keeps the minute, hour, weekday and day-of-month of the previous
// fire via a cron expression, so a daily 09:30 schedule stays at 09:30.
func NextRecurrence(cfg *models.ScheduleConfig, previous time.Time) (time.Time, bool, error) {
	var expression string

	switch cfg.Frequency {
	case models.FrequencyOnce, "":
		return time.Time{}, false, nil
	case models.FrequencyDaily:
		expression = fmt.Sprintf("%d %d * * *", previous.Minute(), previous.Hour())
	case models.FrequencyWeekly:
		expression = fmt.Sprintf("%d %d * * %d", previous.Minute(), previous.Hour(), int(previous.Weekday()))
	case models.FrequencyMonthly:
		expression = fmt.Sprintf("%d %d %d * *", previous.Minute(), previous.Hour(), previous.Day())
	default:
		return time.Time{}, false, fmt.Errorf("unknown frequency %q: %w", cfg.Frequency, ErrSchedule)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	cronSchedule, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse recurrence %q: %w", expression, ErrSchedule)
	}

	return cronSchedule.Next(previous), true, nil
}
