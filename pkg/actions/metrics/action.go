// Package metrics provides the analytics reader collaborator for analytics
// nodes.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/pulsedash/automation/pkg/models"
)

// Source supplies metric values per tenant. Production wires the audience
// metrics service; tests and development use the in-memory StaticSource.
type Source interface {
	Read(ctx context.Context, tenantID string, metric models.MetricType, periodDays int) (float64, error)
}

// Action reads the configured metric and reports whether the target was met.
type Action struct {
	source Source
	logger *slog.Logger
}

func NewAction(source Source, logger *slog.Logger) *Action {
	return &Action{
		source: source,
		logger: logger,
	}
}

func (a *Action) Execute(ctx context.Context, node *models.Node, event *models.Event, actx *models.AccountContext) (map[string]any, error) {
	cfg, ok := node.Config.(*models.AnalyticsConfig)
	if !ok {
		return nil, fmt.Errorf("node %s is not an analytics node", node.ID)
	}

	tenantID := ""
	if actx != nil {
		tenantID = actx.TenantID
	}

	value, err := a.source.Read(ctx, tenantID, cfg.Metric, cfg.PeriodDays)
	if err != nil {
		return nil, fmt.Errorf("read metric %s: %w", cfg.Metric, err)
	}

	result := map[string]any{
		"metric":      string(cfg.Metric),
		"period_days": cfg.PeriodDays,
		"value":       value,
	}

	if cfg.Target != "" {
		target, err := strconv.ParseFloat(cfg.Target, 64)
		if err != nil {
			return nil, fmt.Errorf("analytics target %q is not numeric: %w", cfg.Target, err)
		}

		result["target"] = target
		result["target_met"] = value >= target
	}

	a.logger.InfoContext(ctx, "Metric collected",
		"node_id", node.ID, "metric", string(cfg.Metric), "value", value)

	return result, nil
}

// StaticSource is an in-memory metric source keyed by tenant and metric.
type StaticSource struct {
	mu     sync.RWMutex
	values map[string]float64
}

func NewStaticSource() *StaticSource {
	return &StaticSource{values: make(map[string]float64)}
}

// Set records a metric value for a tenant.
func (s *StaticSource) Set(tenantID string, metric models.MetricType, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[tenantID+"/"+string(metric)] = value
}

func (s *StaticSource) Read(_ context.Context, tenantID string, metric models.MetricType, _ int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values[tenantID+"/"+string(metric)], nil
}
