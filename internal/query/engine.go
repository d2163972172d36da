package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
)

// ErrNotReady is returned while the dataset is still loading.
var ErrNotReady = errors.New("dataset is not loaded yet")

// SnapshotSource provides the shared, read-only dataset.
type SnapshotSource interface {
	Snapshot() (*dataset.Snapshot, error)
}

// Publisher receives every computed summary. Implementations must not
// retain or modify the summary's slices.
type Publisher interface {
	PublishSummary(ctx context.Context, params Params, summary Summary) error
}

// Result is the answer to one query: the summary plus the filtered subset it
// was computed from.
type Result struct {
	Params  Params
	Summary Summary
	Records []*domain.Record
}

// Options are the choices a dashboard offers for each filter.
type Options struct {
	Regions           []string                 `json:"regions"`
	VehicleCategories []domain.VehicleCategory `json:"vehicle_categories"`
	VehicleTypes      []string                 `json:"vehicle_types"`
	HourRange         HourRange                `json:"hour_range"`
	RecordCount       int                      `json:"record_count"`
	LoadedAt          time.Time                `json:"loaded_at"`
}

// Engine answers filter queries against the published snapshot. It holds no
// per-query state, so one Engine serves any number of concurrent callers.
type Engine struct {
	source    SnapshotSource
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewEngine creates an Engine. Pass a nil publisher to disable publishing.
func NewEngine(source SnapshotSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:    source,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the dataset snapshot has been published.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if _, err := e.source.Snapshot(); err != nil {
		return ErrNotReady
	}
	return nil
}

// Run validates params, filters the snapshot, and aggregates the result.
func (e *Engine) Run(ctx context.Context, params Params) (Result, error) {
	if err := params.Validate(); err != nil {
		e.metrics.Queries.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	snap, err := e.source.Snapshot()
	if err != nil {
		e.metrics.Queries.WithLabelValues("not_ready").Inc()
		return Result{}, ErrNotReady
	}

	start := domain.Now()
	filtered := Filter(snap.Records(), params)
	summary := Aggregate(filtered)
	summary.GeneratedAt = domain.Now()
	e.metrics.QueryDuration.Observe(domain.Since(start).Seconds())
	e.metrics.FilteredRecords.Observe(float64(len(filtered)))

	outcome := "ok"
	if summary.Empty() {
		outcome = "empty"
	}
	e.metrics.Queries.WithLabelValues(outcome).Inc()

	e.logger.Debug("query computed",
		"regions", params.Regions,
		"hour_range", params.hours(),
		"vehicles", params.Vehicles,
		"count", summary.Count,
	)

	e.publish(ctx, params, summary)

	return Result{Params: params, Summary: summary, Records: filtered}, nil
}

// Options lists the filter choices for the loaded dataset.
func (e *Engine) Options(_ context.Context) (Options, error) {
	snap, err := e.source.Snapshot()
	if err != nil {
		return Options{}, ErrNotReady
	}
	return Options{
		Regions:           snap.Regions(),
		VehicleCategories: domain.VehicleCategories(),
		VehicleTypes:      snap.VehicleTypes(),
		HourRange:         FullDay,
		RecordCount:       snap.Len(),
		LoadedAt:          snap.LoadedAt(),
	}, nil
}

// publish hands the summary to the publisher. Failures are logged and
// counted; they never fail the query.
func (e *Engine) publish(ctx context.Context, params Params, summary Summary) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishSummary(ctx, params, summary); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("publish summary failed", "error", err)
		return
	}
	e.metrics.SummariesPublished.Inc()
}
