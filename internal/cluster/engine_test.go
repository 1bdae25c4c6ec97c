package cluster

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// fixedInitializer returns a predetermined set of seed document ids, so
// engine tests can pin the exact centers a scenario calls for.
type fixedInitializer struct {
	seeds []int
}

func (f *fixedInitializer) Seed(k int) ([]int, error) {
	return f.seeds[:k], nil
}

func (f *fixedInitializer) Name() string {
	return "fixed"
}

func baseConfig() config.ClusteringConfig {
	return config.ClusteringConfig{
		K:                  2,
		Iterations:         1,
		Metric:             config.MetricCosine,
		Initializer:        config.InitUniformRandom,
		Weighting:          config.WeightingRaw,
		EmptyClusterPolicy: config.EmptyClusterFreeze,
		Seed:               1,
		Workers:            1,
	}
}

func newFixedEngine(t *testing.T, store *corpus.Store, cfg config.ClusteringConfig, seeds []int) *Engine {
	t.Helper()
	engine, err := NewEngine(store, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	engine.init = &fixedInitializer{seeds: seeds}
	return engine
}

func TestEngineTwoClusterScenario(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 2}},
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 2}},
		{{Term: 2, Weight: 5}},
	})
	engine := newFixedEngine(t, store, baseConfig(), []int{0, 2})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{0, 0, 1}
	if !reflect.DeepEqual(result.Assignments, want) {
		t.Errorf("assignments = %v, want %v", result.Assignments, want)
	}
	if result.Passes != 1 {
		t.Errorf("passes = %d, want 1", result.Passes)
	}
}

func TestEngineZeroIterations(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 2}},
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 2}},
		{{Term: 2, Weight: 5}},
	})
	cfg := baseConfig()
	cfg.Iterations = 0
	engine := newFixedEngine(t, store, cfg, []int{0, 2})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// With zero iterations the output is exactly the assignment against the
	// seed centroids, and no update pass ever ran.
	want := []int{0, 0, 1}
	if !reflect.DeepEqual(result.Assignments, want) {
		t.Errorf("assignments = %v, want %v", result.Assignments, want)
	}
	if result.Passes != 0 {
		t.Errorf("passes = %d, want 0", result.Passes)
	}
	// Seed centroids survive untouched.
	if w := result.Centroids[1][2]; w != 5 {
		t.Errorf("seed centroid weight = %v, want 5", w)
	}
}

func TestEngineAssignmentsInRange(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}},
		{{Term: 1, Weight: 2}},
		{{Term: 0, Weight: 3}, {Term: 1, Weight: 1}},
		{{Term: 2, Weight: 1}},
		{{Term: 2, Weight: 2}, {Term: 0, Weight: 1}},
	})
	cfg := baseConfig()
	cfg.K = 3
	cfg.Iterations = 4
	cfg.Initializer = config.InitKMeansPP
	engine, err := NewEngine(store, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Assignments) != store.Len() {
		t.Fatalf("assignment length = %d, want %d", len(result.Assignments), store.Len())
	}
	for docID, c := range result.Assignments {
		if c < 0 || c >= cfg.K {
			t.Errorf("document %d assigned to %d, outside 0..%d", docID, c, cfg.K-1)
		}
	}
	if len(result.Centroids) != cfg.K {
		t.Errorf("centroid count = %d, want %d", len(result.Centroids), cfg.K)
	}
}

func TestEngineTieBreakLowestIndex(t *testing.T) {
	// Documents 0 and 1 are identical, so both seed centroids are identical
	// and every comparison ties. First-found (lowest index) must win.
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}},
		{{Term: 0, Weight: 1}},
	})
	cfg := baseConfig()
	cfg.Iterations = 0
	engine := newFixedEngine(t, store, cfg, []int{0, 1})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{0, 0}
	if !reflect.DeepEqual(result.Assignments, want) {
		t.Errorf("assignments = %v, want %v (ties go to the lowest centroid index)", result.Assignments, want)
	}
}

func TestEngineEmptyClusterFreeze(t *testing.T) {
	// Both seed centroids are identical, so cluster 1 starts empty and the
	// update pass must apply the policy instead of dividing by zero.
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}},
		{{Term: 0, Weight: 1}},
		{{Term: 1, Weight: 1}},
	})
	cfg := baseConfig()
	cfg.Iterations = 2
	engine := newFixedEngine(t, store, cfg, []int{0, 1})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EmptyClusterEvents == 0 {
		t.Error("expected at least one empty-cluster event")
	}
	// Frozen centroid keeps its seeded weights.
	if w := result.Centroids[1][0]; w != 1 {
		t.Errorf("frozen centroid weight = %v, want 1", w)
	}
}

func TestEngineEmptyClusterReseed(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}},
		{{Term: 0, Weight: 1}},
		{{Term: 1, Weight: 1}},
	})
	cfg := baseConfig()
	cfg.Iterations = 2
	cfg.EmptyClusterPolicy = config.EmptyClusterReseed
	engine := newFixedEngine(t, store, cfg, []int{0, 1})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EmptyClusterEvents == 0 {
		t.Error("expected at least one empty-cluster event")
	}
	// Document 2 shares no terms with the crowded centroid, so reseeding
	// moves cluster 1 onto it and the next pass claims it.
	want := []int{0, 0, 1}
	if !reflect.DeepEqual(result.Assignments, want) {
		t.Errorf("assignments = %v, want %v after reseed", result.Assignments, want)
	}
}

func TestEngineDeterminism(t *testing.T) {
	docs := make([][]corpus.Pair, 20)
	for i := range docs {
		docs[i] = []corpus.Pair{
			{Term: i % 4, Weight: float64(1 + i%3)},
			{Term: 4 + i%5, Weight: float64(2 + i%2)},
		}
	}
	store := mustStore(t, docs)

	cfg := baseConfig()
	cfg.K = 4
	cfg.Iterations = 3
	cfg.Initializer = config.InitKMeansPP
	cfg.Seed = 42

	runOnce := func() *Result {
		engine, err := NewEngine(store, cfg)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		result, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	first := runOnce()
	second := runOnce()
	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Errorf("same seed produced different assignments:\n%v\n%v", first.Assignments, second.Assignments)
	}
	if !reflect.DeepEqual(first.Centroids, second.Centroids) {
		t.Error("same seed produced different centroids")
	}
}

func TestEngineWorkerCountInvariance(t *testing.T) {
	docs := make([][]corpus.Pair, 30)
	for i := range docs {
		docs[i] = []corpus.Pair{
			{Term: i % 6, Weight: float64(1 + i%4)},
			{Term: 6 + i%3, Weight: 1},
		}
	}
	store := mustStore(t, docs)

	cfg := baseConfig()
	cfg.K = 3
	cfg.Iterations = 2
	cfg.Seed = 7

	var baseline []int
	for _, workers := range []int{1, 4, 64} {
		cfg.Workers = workers
		engine, err := NewEngine(store, cfg)
		if err != nil {
			t.Fatalf("NewEngine(workers=%d): %v", workers, err)
		}
		result, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("Run(workers=%d): %v", workers, err)
		}
		if baseline == nil {
			baseline = result.Assignments
			continue
		}
		if !reflect.DeepEqual(result.Assignments, baseline) {
			t.Errorf("workers=%d changed assignments", workers)
		}
	}
}

func TestNewEngineValidation(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}},
		{{Term: 1, Weight: 1}},
	})

	cases := []struct {
		name   string
		mutate func(*config.ClusteringConfig)
	}{
		{"k zero", func(c *config.ClusteringConfig) { c.K = 0 }},
		{"k negative", func(c *config.ClusteringConfig) { c.K = -3 }},
		{"k above n", func(c *config.ClusteringConfig) { c.K = 3 }},
		{"negative iterations", func(c *config.ClusteringConfig) { c.Iterations = -1 }},
		{"unknown metric", func(c *config.ClusteringConfig) { c.Metric = "hamming" }},
		{"unknown initializer", func(c *config.ClusteringConfig) { c.Initializer = "grid" }},
		{"unknown policy", func(c *config.ClusteringConfig) { c.EmptyClusterPolicy = "panic" }},
		{"zero workers", func(c *config.ClusteringConfig) { c.Workers = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := NewEngine(store, cfg); !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Errorf("NewEngine error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewEngineEmptyCorpus(t *testing.T) {
	store := mustStore(t, nil)
	if _, err := NewEngine(store, baseConfig()); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("NewEngine over empty corpus error = %v, want ErrInvalidConfig", err)
	}
}

func TestEngineEuclideanSelectsMinimum(t *testing.T) {
	// Document 2 is close to document 1 in euclidean terms but shares more
	// raw overlap with document 0; the distance metric must pick cluster 1.
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 10}},
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 1}},
		{{Term: 0, Weight: 2}, {Term: 1, Weight: 1}},
	})
	cfg := baseConfig()
	cfg.Metric = config.MetricEuclidean
	cfg.Iterations = 0
	engine := newFixedEngine(t, store, cfg, []int{0, 1})

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Assignments[2] != 1 {
		t.Errorf("document 2 assigned to %d, want 1 (minimum distance)", result.Assignments[2])
	}
}
