package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pulsedash/automation/pkg/models"
)

// ContinuationQueue keeps one small JSON file per suspended branch, named
// "{runID}_{nodeID}.json". PopDue scans, sorts by fire time and removes the
// due entries atomically under the shared lock.
type ContinuationQueue struct {
	persistence *Persistence
}

func (q *ContinuationQueue) Push(ctx context.Context, c models.Continuation) error {
	q.persistence.mu.Lock()
	defer q.persistence.mu.Unlock()

	dir, err := q.persistence.dir("continuations")
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode continuation: %w", err)
	}

	name := c.RunID + "_" + c.NodeID + ".json"

	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func (q *ContinuationQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]models.Continuation, error) {
	q.persistence.mu.Lock()
	defer q.persistence.mu.Unlock()

	all, dir, err := q.scan()
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].FireAt.Before(all[j].FireAt)
	})

	due := make([]models.Continuation, 0, limit)

	for _, c := range all {
		if !c.Due(now) || len(due) >= limit {
			break
		}

		name := c.RunID + "_" + c.NodeID + ".json"
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return nil, err
		}

		due = append(due, c)
	}

	return due, nil
}

func (q *ContinuationQueue) RemoveByRun(ctx context.Context, runID string) ([]models.Continuation, error) {
	q.persistence.mu.Lock()
	defer q.persistence.mu.Unlock()

	all, dir, err := q.scan()
	if err != nil {
		return nil, err
	}

	removed := []models.Continuation{}

	for _, c := range all {
		if c.RunID != runID {
			continue
		}

		name := c.RunID + "_" + c.NodeID + ".json"
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return nil, err
		}

		removed = append(removed, c)
	}

	return removed, nil
}

func (q *ContinuationQueue) CountByRun(ctx context.Context, runID string) (int, error) {
	q.persistence.mu.Lock()
	defer q.persistence.mu.Unlock()

	dir, err := q.persistence.dir("continuations")
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), runID+"_") {
			count++
		}
	}

	return count, nil
}

func (q *ContinuationQueue) scan() ([]models.Continuation, string, error) {
	dir, err := q.persistence.dir("continuations")
	if err != nil {
		return nil, "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", err
	}

	all := make([]models.Continuation, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, "", err
		}

		var c models.Continuation
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, "", fmt.Errorf("decode continuation %s: %w", entry.Name(), err)
		}

		all = append(all, c)
	}

	return all, dir, nil
}

// EventDedup records processed event IDs as empty marker files.
type EventDedup struct {
	persistence *Persistence
}

func (d *EventDedup) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	d.persistence.mu.Lock()
	defer d.persistence.mu.Unlock()

	dir, err := d.persistence.dir("events")
	if err != nil {
		return false, err
	}

	path := filepath.Join(dir, eventID+".seen")

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644); err != nil {
		return false, err
	}

	return true, nil
}
