package cluster

import (
	"math"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
)

// euclideanMetric is a distance, so lower is better. The sum runs only over
// the terms present in the first operand's vector: terms carried only by the
// second operand contribute nothing. The asymmetry is intentional behavior
// inherited from the reference design, not an oversight to "fix" silently.
type euclideanMetric struct {
	store *corpus.Store
}

func (m *euclideanMetric) Compare(a, b int) float64 {
	var sum float64
	for _, p := range m.store.VectorOf(a) {
		d := p.Weight - m.store.Weight(p.Term, b)
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (m *euclideanMetric) CompareToCentroid(docID int, c Centroid) float64 {
	var sum float64
	for _, p := range m.store.VectorOf(docID) {
		d := p.Weight - c[p.Term]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (m *euclideanMetric) Better(a, b float64) bool {
	return a < b
}

func (m *euclideanMetric) Name() string {
	return config.MetricEuclidean
}
