package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/collision-query-service/internal/config"
	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SummaryMessage is the JSON value written for every computed summary.
type SummaryMessage struct {
	Params  query.Params  `json:"params"`
	Summary query.Summary `json:"summary"`
}

// Publisher produces query summaries to a Kafka topic.
// It implements query.Publisher.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates an asynchronous Kafka producer for the configured
// summary topic. Delivery failures are logged and counted when the batch
// completes; they never reach the query path.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	p := &Publisher{logger: logger, metrics: metrics}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSummaryTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.complete,
	}
	return p
}

// PublishSummary serializes the summary and hands it to the writer.
func (p *Publisher) PublishSummary(ctx context.Context, params query.Params, summary query.Summary) error {
	msg, err := serializeToMessage(params, summary)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) complete(msgs []kafkago.Message, err error) {
	if err == nil {
		return
	}
	p.metrics.PublishErrors.Add(float64(len(msgs)))
	p.logger.Warn("summary delivery failed", "error", err, "messages", len(msgs))
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one summary into a Kafka message keyed by the
// canonical form of its filter, so identical queries share a partition.
func serializeToMessage(params query.Params, summary query.Summary) (kafkago.Message, error) {
	data, err := json.Marshal(SummaryMessage{Params: params, Summary: summary})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(paramsKey(params)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_count", Value: []byte(strconv.Itoa(summary.Count))},
			{Key: "generated_at", Value: []byte(summary.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

// paramsKey renders params independent of selection order,
// e.g. "regions=BRONX,QUEENS;hours=7-19;vehicles=car,truck".
func paramsKey(p query.Params) string {
	regions := slices.Clone(p.Regions)
	slices.Sort(regions)

	vehicles := make([]string, len(p.Vehicles))
	for i, v := range p.Vehicles {
		vehicles[i] = string(v)
	}
	slices.Sort(vehicles)

	hours := "all"
	if h := p.HourRange; h != nil {
		hours = fmt.Sprintf("%d-%d", h.Min, h.Max)
	}
	return fmt.Sprintf("regions=%s;hours=%s;vehicles=%s",
		strings.Join(slices.Compact(regions), ","), hours, strings.Join(slices.Compact(vehicles), ","))
}
