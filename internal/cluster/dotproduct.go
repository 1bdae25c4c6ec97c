package cluster

import (
	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
)

// dotProductMetric is the raw, unnormalized dot product. It favors longer
// documents; it exists to expose the normalization trade-off against cosine,
// not as a recommended default.
type dotProductMetric struct {
	store *corpus.Store
}

func (m *dotProductMetric) Compare(a, b int) float64 {
	return sparseDot(m.store, a, b)
}

func (m *dotProductMetric) CompareToCentroid(docID int, c Centroid) float64 {
	return centroidDot(m.store, docID, c)
}

func (m *dotProductMetric) Better(a, b float64) bool {
	return a > b
}

func (m *dotProductMetric) Name() string {
	return config.MetricDotProduct
}
