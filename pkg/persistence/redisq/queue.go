// Package redisq provides Redis-backed implementations of the continuation
// queue and event deduplication. Continuations live in a sorted set scored
// by fire time, so the due sweep is a single range query.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsedash/automation/pkg/models"
)

const (
	continuationsKey = "pulse:automation:continuations"
	dedupKeyPrefix   = "pulse:automation:events:"
	dedupTTL         = 7 * 24 * time.Hour
)

// ContinuationQueue keeps suspended branch markers in one sorted set. The
// member is the JSON continuation, the score its fire time in unix millis.
type ContinuationQueue struct {
	client *redis.Client
}

func NewContinuationQueue(client *redis.Client) *ContinuationQueue {
	return &ContinuationQueue{client: client}
}

func (q *ContinuationQueue) Push(ctx context.Context, c models.Continuation) error {
	member, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode continuation: %w", err)
	}

	z := redis.Z{
		Score:  float64(c.FireAt.UnixMilli()),
		Member: member,
	}

	if err := q.client.ZAdd(ctx, continuationsKey, z).Err(); err != nil {
		return fmt.Errorf("push continuation: %w", err)
	}

	return nil
}

func (q *ContinuationQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]models.Continuation, error) {
	opt := &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}

	members, err := q.client.ZRangeByScore(ctx, continuationsKey, opt).Result()
	if err != nil {
		return nil, fmt.Errorf("pop continuations: %w", err)
	}

	if len(members) == 0 {
		return []models.Continuation{}, nil
	}

	due := make([]models.Continuation, 0, len(members))

	for _, member := range members {
		// ZRem decides ownership under concurrent sweepers: whoever
		// removes the member resumes the branch.
		removed, err := q.client.ZRem(ctx, continuationsKey, member).Result()
		if err != nil {
			return nil, fmt.Errorf("pop continuations: %w", err)
		}

		if removed == 0 {
			continue
		}

		var c models.Continuation
		if err := json.Unmarshal([]byte(member), &c); err != nil {
			return nil, fmt.Errorf("decode continuation: %w", err)
		}

		due = append(due, c)
	}

	return due, nil
}

func (q *ContinuationQueue) RemoveByRun(ctx context.Context, runID string) ([]models.Continuation, error) {
	members, err := q.client.ZRange(ctx, continuationsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("remove continuations: %w", err)
	}

	removed := []models.Continuation{}

	for _, member := range members {
		var c models.Continuation
		if err := json.Unmarshal([]byte(member), &c); err != nil {
			continue
		}

		if c.RunID != runID {
			continue
		}

		res, err := q.client.ZRem(ctx, continuationsKey, member).Result()
		if err != nil {
			return nil, fmt.Errorf("remove continuations: %w", err)
		}

		if res > 0 {
			removed = append(removed, c)
		}
	}

	return removed, nil
}

func (q *ContinuationQueue) CountByRun(ctx context.Context, runID string) (int, error) {
	members, err := q.client.ZRange(ctx, continuationsKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("count continuations: %w", err)
	}

	count := 0

	for _, member := range members {
		var c models.Continuation
		if err := json.Unmarshal([]byte(member), &c); err != nil {
			continue
		}

		if c.RunID == runID {
			count++
		}
	}

	return count, nil
}

// EventDedup claims event IDs with SET NX. Keys expire after a retention
// window long past any webhook redelivery horizon.
type EventDedup struct {
	client *redis.Client
}

func NewEventDedup(client *redis.Client) *EventDedup {
	return &EventDedup{client: client}
}

func (d *EventDedup) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, dedupKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}

	return claimed, nil
}
