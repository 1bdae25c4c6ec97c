// Package report publishes run lifecycle information to the optional
// reporting sinks: Kafka run events for downstream analytics and a Redis
// run-summary cache keyed by configuration. Both sinks are best-effort; a
// clustering run never fails because reporting is down.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/docstream-labs/corpus-clustering-platform/pkg/kafka"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/resilience"
)

// Event types published to the run-events topic.
const (
	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// RunEvent is the JSON payload of one run lifecycle event.
type RunEvent struct {
	Type               string   `json:"type"`
	RunID              string   `json:"run_id"`
	Timestamp          string   `json:"timestamp"`
	K                  int      `json:"k"`
	Iterations         int      `json:"iterations"`
	Metric             string   `json:"metric"`
	Initializer        string   `json:"initializer"`
	Weighting          string   `json:"weighting"`
	Documents          int      `json:"documents"`
	DurationMs         int64    `json:"duration_ms,omitempty"`
	Reassignments      int      `json:"reassignments,omitempty"`
	EmptyClusterEvents int      `json:"empty_cluster_events,omitempty"`
	QualityScore       *float64 `json:"quality_score,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// Publisher emits run events to Kafka with retry.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher wraps an existing Kafka producer.
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "run-publisher"),
	}
}

// Publish stamps and sends one event, keyed by run id so all events of a run
// land on the same partition. Failures are logged, not propagated.
func (p *Publisher) Publish(ctx context.Context, event RunEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	err := resilience.Retry(ctx, "publish-run-event", resilience.RetryConfig{}, func() error {
		return p.producer.Publish(ctx, kafka.Event{
			Key:   event.RunID,
			Value: event,
		})
	})
	if err != nil {
		p.logger.Error("dropping run event", "type", event.Type, "error", err)
		return
	}
	p.logger.Debug("run event published", "type", event.Type, "run_id", event.RunID)
}

// Close flushes and closes the underlying producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
