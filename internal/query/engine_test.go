package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
)

type recordingPublisher struct {
	calls     int
	lastCount int
	err       error
}

func (p *recordingPublisher) PublishSummary(_ context.Context, _ Params, s Summary) error {
	p.calls++
	p.lastCount = s.Count
	return p.err
}

func loadedStore(records ...domain.Record) *dataset.Store {
	b := dataset.NewBuilder()
	b.Add(records...)
	store := dataset.NewStore()
	store.Publish(b.Build())
	return store
}

func TestEngine_Run(t *testing.T) {
	fixed := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	pub := &recordingPublisher{}
	e := NewEngine(loadedStore(filterFixture()...), pub, discardLogger(), metrics)

	res, err := e.Run(context.Background(), Params{Vehicles: []domain.VehicleCategory{domain.VehicleTruck}})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.Count)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, fixed, res.Summary.GeneratedAt)
	assert.Equal(t, "Driver Distracted", res.Summary.TopFactor)

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, 2, pub.lastCount)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SummariesPublished), 0)
}

func TestEngine_RunEmptyResult(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	e := NewEngine(loadedStore(filterFixture()...), nil, discardLogger(), metrics)

	res, err := e.Run(context.Background(), Params{HourRange: &HourRange{Min: 2, Max: 3}})
	require.NoError(t, err)

	assert.True(t, res.Summary.Empty())
	assert.Equal(t, NotApplicable, res.Summary.TopFactor)
	assert.Len(t, res.Summary.HourlyHistogram, 24)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("empty")), 0)
}

func TestEngine_RunInvalidParams(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	pub := &recordingPublisher{}
	e := NewEngine(loadedStore(filterFixture()...), pub, discardLogger(), metrics)

	_, err := e.Run(context.Background(), Params{HourRange: &HourRange{Min: 5, Max: 30}})
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Zero(t, pub.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("invalid")), 0)
}

func TestEngine_NotReady(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	e := NewEngine(dataset.NewStore(), nil, discardLogger(), metrics)

	_, err := e.Run(context.Background(), Params{})
	require.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, e.CheckReadiness(context.Background()), ErrNotReady)

	_, err = e.Options(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("not_ready")), 0)
}

func TestEngine_PublishFailureDoesNotFailQuery(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	pub := &recordingPublisher{err: errors.New("broker down")}
	e := NewEngine(loadedStore(filterFixture()...), pub, discardLogger(), metrics)

	res, err := e.Run(context.Background(), Params{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Summary.Count)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
	assert.Zero(t, testutil.ToFloat64(metrics.SummariesPublished))
}

func TestEngine_Options(t *testing.T) {
	r := rec("QUEENS", 1, "", domain.VehicleCar)
	r.Vehicles[0] = "Sedan"
	e := NewEngine(loadedStore(r, rec("BRONX", 2, "", domain.VehicleTruck)), nil, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, e.CheckReadiness(context.Background()))
	opts, err := e.Options(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BRONX", "QUEENS"}, opts.Regions)
	assert.Equal(t, []string{"Sedan"}, opts.VehicleTypes)
	assert.Equal(t, domain.VehicleCategories(), opts.VehicleCategories)
	assert.Equal(t, FullDay, opts.HourRange)
	assert.Equal(t, 2, opts.RecordCount)
}

func TestEngine_ConcurrentQueriesShareSnapshot(t *testing.T) {
	e := NewEngine(loadedStore(filterFixture()...), nil, discardLogger(), observability.NewMetricsForTesting())

	done := make(chan int, 8)
	for i := range 8 {
		go func() {
			p := Params{}
			if i%2 == 0 {
				p.Regions = []string{"QUEENS"}
			}
			res, err := e.Run(context.Background(), p)
			if err != nil {
				done <- -1
				return
			}
			done <- res.Summary.Count
		}()
	}
	for range 8 {
		n := <-done
		assert.Contains(t, []int{2, 5}, n)
	}
}
