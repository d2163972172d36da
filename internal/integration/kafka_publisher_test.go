//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/collision-query-service/internal/adapter/kafka"
	"github.com/couchcryptid/collision-query-service/internal/config"
	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/pipeline"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

const testSummaryTopic = "test-collision-summaries"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("collision-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// loadSampleSnapshot loads the CSV fixture used by the pipeline tests.
func loadSampleSnapshot(ctx context.Context, t *testing.T) *dataset.Store {
	t.Helper()
	src, err := dataset.OpenCSV(filepath.Join("..", "pipeline", "testdata", "collisions_sample.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	store := dataset.NewStore()
	p := pipeline.New(src, pipeline.NewTransformer(nil, discardLogger()), store, discardLogger(), observability.NewMetricsForTesting(), 100)
	_, err = p.Run(ctx)
	require.NoError(t, err)
	return store
}

// TestSummaryPublisher runs queries through the engine with the Kafka
// publisher attached and reads the published summaries back.
func TestSummaryPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSummaryTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaSummaryTopic: testSummaryTopic,
	}
	metrics := observability.NewMetricsForTesting()
	publisher := kafka.NewPublisher(cfg, discardLogger(), metrics)

	engine := query.NewEngine(loadSampleSnapshot(ctx, t), publisher, discardLogger(), metrics)

	queries := []query.Params{
		{},
		{Regions: []string{"BROOKLYN"}, Vehicles: []domain.VehicleCategory{domain.VehicleMotorcycle}},
		{HourRange: &query.HourRange{Min: 20, Max: 23}},
	}
	want := make(map[string]int, len(queries))
	for _, q := range queries {
		res, err := engine.Run(ctx, q)
		require.NoError(t, err)
		want[fmt.Sprint(res.Summary.Count)]++
	}

	// Close flushes the async writer.
	require.NoError(t, publisher.Close())

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSummaryTopic,
		GroupID:     fmt.Sprintf("test-summaries-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]int, len(queries))
	for range queries {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from summary topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")

		var decoded kafka.SummaryMessage
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, headers["record_count"], strconv.Itoa(decoded.Summary.Count))
		assert.Len(t, decoded.Summary.HourlyHistogram, 24)
		got[fmt.Sprint(decoded.Summary.Count)]++
	}

	assert.Equal(t, want, got)
	assert.Zero(t, testutil.ToFloat64(metrics.PublishErrors))
}

