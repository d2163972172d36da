package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw rows from the source. It returns
// io.EOF once the source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Transformer normalizes a batch of raw rows. It returns the kept records
// and how many rows were dropped.
type Transformer interface {
	Transform(ctx context.Context, raws []domain.RawRecord) ([]domain.Record, int)
}

// SnapshotPublisher makes a frozen snapshot visible to queries.
type SnapshotPublisher interface {
	Publish(s *dataset.Snapshot)
}

// Retry bounds for transient extract failures.
const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
	retryMaxElapsed      = 2 * time.Minute
)

// Pipeline runs the one-time extract-normalize-publish load.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	publisher   SnapshotPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
	newBackOff  func() backoff.BackOff
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, p SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		newBackOff:  defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsed
	return b
}

// CheckReadiness returns nil once the snapshot has been published, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("dataset load has not completed yet")
	}
	return nil
}

// Ready reports whether the snapshot has been published.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Run reads the source to the end, normalizes every batch, and publishes the
// resulting snapshot. It returns early with an error if the context is
// cancelled or a batch cannot be extracted within the retry budget.
func (p *Pipeline) Run(ctx context.Context) (*dataset.Snapshot, error) {
	p.logger.Info("dataset load started", "batch_size", p.batchSize)
	start := domain.Now()
	builder := dataset.NewBuilder()

	for {
		raws, err := p.extract(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.logger.Error("dataset load failed", "error", err, "records", builder.Len())
			return nil, fmt.Errorf("load dataset: %w", err)
		}

		p.metrics.LoadBatchSize.Observe(float64(len(raws)))
		records, dropped := p.transformer.Transform(ctx, raws)
		builder.Add(records...)
		builder.AddDropped(dropped)
		p.metrics.RecordsLoaded.Add(float64(len(records)))
		p.metrics.RecordsDropped.Add(float64(dropped))
	}

	snap := builder.Build()
	p.publisher.Publish(snap)
	p.ready.Store(true)
	p.metrics.DatasetReady.Set(1)
	p.metrics.LoadDuration.Observe(domain.Since(start).Seconds())

	p.logger.Info("dataset load complete",
		"records", snap.Len(),
		"dropped", snap.Dropped(),
		"regions", len(snap.Regions()),
		"duration", domain.Since(start).String(),
	)
	return snap, nil
}

// extract reads one batch, retrying transient failures with exponential
// backoff. io.EOF, malformed-source errors, and context errors are final.
func (p *Pipeline) extract(ctx context.Context) ([]domain.RawRecord, error) {
	op := func() ([]domain.RawRecord, error) {
		raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		switch {
		case err == nil:
			return raws, nil
		case errors.Is(err, io.EOF), errors.Is(err, dataset.ErrMalformed), ctx.Err() != nil:
			return nil, backoff.Permanent(err)
		default:
			return nil, err
		}
	}
	notify := func(err error, wait time.Duration) {
		p.metrics.LoadRetries.Inc()
		p.logger.Warn("extract batch failed, retrying", "error", err, "backoff", wait.String())
	}
	return backoff.RetryNotifyWithData(op, backoff.WithContext(p.newBackOff(), ctx), notify)
}
