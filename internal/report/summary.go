package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/redis"
)

// RunSummary is the cached outcome of the most recent run for a given
// clustering configuration.
type RunSummary struct {
	RunID              string   `json:"run_id"`
	CompletedAt        string   `json:"completed_at"`
	Documents          int      `json:"documents"`
	Passes             int      `json:"passes"`
	Reassignments      int      `json:"reassignments"`
	EmptyClusterEvents int      `json:"empty_cluster_events"`
	ActiveClusters     int      `json:"active_clusters"`
	QualityScore       *float64 `json:"quality_score,omitempty"`
	DurationMs         int64    `json:"duration_ms"`
}

// SummaryStore caches run summaries in Redis with a TTL, keyed by a hash of
// the clustering configuration, in the same spirit as a query-result cache:
// re-running an identical configuration can show its previous outcome without
// digging through logs.
type SummaryStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSummaryStore wraps an existing Redis client.
func NewSummaryStore(client *redis.Client, ttl time.Duration) *SummaryStore {
	return &SummaryStore{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "summary-store"),
	}
}

// Save stores the summary under the configuration's key. Failures are
// logged, not propagated.
func (s *SummaryStore) Save(ctx context.Context, cfg config.ClusteringConfig, summary RunSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Error("marshaling run summary", "error", err)
		return
	}
	key := SummaryKey(cfg)
	if err := s.client.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Error("caching run summary", "key", key, "error", err)
		return
	}
	s.logger.Debug("run summary cached", "key", key)
}

// Load returns the cached summary for the configuration, or (nil, nil) when
// none is cached.
func (s *SummaryStore) Load(ctx context.Context, cfg config.ClusteringConfig) (*RunSummary, error) {
	raw, err := s.client.Get(ctx, SummaryKey(cfg))
	if err != nil {
		if redis.IsNilError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading run summary: %w", err)
	}
	var summary RunSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling run summary: %w", err)
	}
	return &summary, nil
}

// SummaryKey derives the cache key from the fields that shape a run's output.
func SummaryKey(cfg config.ClusteringConfig) string {
	canonical := fmt.Sprintf("k=%d|iters=%d|metric=%s|init=%s|weighting=%s|policy=%s|seed=%d",
		cfg.K, cfg.Iterations, cfg.Metric, cfg.Initializer, cfg.Weighting, cfg.EmptyClusterPolicy, cfg.Seed)
	sum := sha256.Sum256([]byte(canonical))
	return "clusterrun:summary:" + hex.EncodeToString(sum[:8])
}
