package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/metrics"
)

// Engine drives one clustering run over an immutable store: seed centroids,
// assign every document, then run exactly Iterations passes of centroid
// update plus full reassignment. There is no convergence detection; the
// fixed iteration count is the sole stopping criterion.
type Engine struct {
	store      *corpus.Store
	cfg        config.ClusteringConfig
	metric     Metric
	init       Initializer
	logger     *slog.Logger
	collectors *metrics.Metrics
}

// Result is the engine's output: the final assignment array (length N,
// values 0..K-1) and the K centroids of the last pass, plus run statistics.
type Result struct {
	Assignments        []int
	Centroids          []Centroid
	Seeds              []int
	Passes             int
	Reassignments      int
	EmptyClusterEvents int
	ClusterSizes       []int
}

// NewEngine validates the configuration against the store and wires the
// metric and initializer. All validation failures happen here, before any
// clustering state exists.
func NewEngine(store *corpus.Store, cfg config.ClusteringConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "%v", err)
	}
	if store.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "corpus is empty")
	}
	if cfg.K > store.Len() {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig,
			"k=%d exceeds corpus size %d", cfg.K, store.Len())
	}

	metric, err := NewMetric(cfg.Metric, store)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	init, err := NewInitializer(cfg.Initializer, store, rng)
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:  store,
		cfg:    cfg,
		metric: metric,
		init:   init,
		logger: slog.Default().With("component", "cluster-engine"),
	}, nil
}

// SetCollectors attaches Prometheus collectors. The engine works without
// them, which keeps tests free of global registry state.
func (e *Engine) SetCollectors(m *metrics.Metrics) {
	e.collectors = m
}

// Run executes the full seed -> assign -> iterate sequence.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	n := e.store.Len()
	k := e.cfg.K

	seeds, err := e.init.Seed(k)
	if err != nil {
		return nil, fmt.Errorf("seeding centroids: %w", err)
	}

	centroids := make([]Centroid, k)
	for c, docID := range seeds {
		centroids[c] = vectorToCentroid(e.store.VectorOf(docID))
	}
	e.logger.Info("centroids seeded",
		"k", k,
		"initializer", e.init.Name(),
		"metric", e.metric.Name(),
	)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	if _, err := e.assign(ctx, centroids, assignments); err != nil {
		return nil, fmt.Errorf("initial assignment: %w", err)
	}

	result := &Result{
		Assignments: assignments,
		Centroids:   centroids,
		Seeds:       seeds,
	}

	for pass := 1; pass <= e.cfg.Iterations; pass++ {
		passStart := time.Now()

		result.EmptyClusterEvents += e.updateCentroids(assignments, centroids, pass)

		changed, err := e.assign(ctx, centroids, assignments)
		if err != nil {
			return nil, fmt.Errorf("pass %d reassignment: %w", pass, err)
		}
		result.Reassignments += changed
		result.Passes = pass

		if e.collectors != nil {
			e.collectors.IterationDuration.Observe(time.Since(passStart).Seconds())
			e.collectors.ReassignmentsTotal.Add(float64(changed))
		}
		e.logger.Debug("pass complete",
			"pass", pass,
			"reassigned", changed,
			"duration_ms", time.Since(passStart).Milliseconds(),
		)
	}

	result.ClusterSizes = clusterSizes(assignments, k)
	if e.collectors != nil {
		active := 0
		for _, size := range result.ClusterSizes {
			if size > 0 {
				active++
			}
		}
		e.collectors.ActiveClusters.Set(float64(active))
	}

	return result, nil
}

// assign evaluates every document against all K centroids and assigns it to
// the best-scoring one under the metric's direction policy. Ties go to the
// lowest centroid index. The pass fans out across document chunks when
// Workers > 1; assignments are written by document index, so the output is
// identical for any worker count.
func (e *Engine) assign(ctx context.Context, centroids []Centroid, assignments []int) (int, error) {
	n := e.store.Len()
	workers := e.cfg.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	changedPerWorker := make([]int, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		w := w
		g.Go(func() error {
			for docID := start; docID < end; docID++ {
				if docID%1024 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				best := 0
				bestScore := e.metric.CompareToCentroid(docID, centroids[0])
				for c := 1; c < len(centroids); c++ {
					if score := e.metric.CompareToCentroid(docID, centroids[c]); e.metric.Better(score, bestScore) {
						best = c
						bestScore = score
					}
				}
				if assignments[docID] != best {
					changedPerWorker[w]++
				}
				assignments[docID] = best
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var changed int
	for _, c := range changedPerWorker {
		changed += c
	}
	return changed, nil
}

// updateCentroids rebuilds every centroid as the mean of its members over the
// union of terms they touch. Terms absent from every member stay implicit
// zeros and are never materialized. A cluster with no members triggers the
// configured policy instead of a divide-by-zero. Returns the number of
// empty-cluster events.
func (e *Engine) updateCentroids(assignments []int, centroids []Centroid, pass int) int {
	k := len(centroids)
	sizes := clusterSizes(assignments, k)

	fresh := make([]Centroid, k)
	for c := range fresh {
		fresh[c] = make(Centroid)
	}
	for docID, c := range assignments {
		for _, p := range e.store.VectorOf(docID) {
			fresh[c][p.Term] += p.Weight
		}
	}

	emptyEvents := 0
	for c := 0; c < k; c++ {
		if sizes[c] == 0 {
			emptyEvents++
			e.handleEmptyCluster(assignments, centroids, c, pass)
			continue
		}
		divisor := float64(sizes[c])
		for term := range fresh[c] {
			fresh[c][term] /= divisor
		}
		centroids[c] = fresh[c]
	}
	return emptyEvents
}

// handleEmptyCluster applies the configured recovery policy: freeze keeps the
// previous centroid untouched, reseed moves the centroid onto the document
// scoring worst against its own centroid.
func (e *Engine) handleEmptyCluster(assignments []int, centroids []Centroid, c int, pass int) {
	policy := e.cfg.EmptyClusterPolicy
	e.logger.Warn("cluster lost all members",
		"cluster", c,
		"pass", pass,
		"policy", policy,
	)
	if e.collectors != nil {
		e.collectors.EmptyClustersTotal.WithLabelValues(policy).Inc()
	}

	if policy != config.EmptyClusterReseed {
		return
	}

	worst := -1
	var worstScore float64
	for docID, assigned := range assignments {
		score := e.metric.CompareToCentroid(docID, centroids[assigned])
		if worst < 0 || e.metric.Better(worstScore, score) {
			worst = docID
			worstScore = score
		}
	}
	if worst < 0 {
		return
	}
	centroids[c] = vectorToCentroid(e.store.VectorOf(worst))
	e.logger.Info("centroid reseeded", "cluster", c, "doc_id", worst)
}

func vectorToCentroid(vec []corpus.Pair) Centroid {
	c := make(Centroid, len(vec))
	for _, p := range vec {
		c[p.Term] = p.Weight
	}
	return c
}

func clusterSizes(assignments []int, k int) []int {
	sizes := make([]int, k)
	for _, c := range assignments {
		sizes[c]++
	}
	return sizes
}
