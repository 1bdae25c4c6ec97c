package cluster

import (
	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
)

// cosineMetric is dot(a,b) / (|a|*|b|). With non-negative weights the score
// lands in [0,1]; higher is better. A zero-magnitude operand makes the ratio
// undefined, so the score is pinned to 0 instead of propagating NaN.
type cosineMetric struct {
	store *corpus.Store
}

func (m *cosineMetric) Compare(a, b int) float64 {
	magA, magB := m.store.Magnitude(a), m.store.Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	return sparseDot(m.store, a, b) / (magA * magB)
}

func (m *cosineMetric) CompareToCentroid(docID int, c Centroid) float64 {
	magDoc, magC := m.store.Magnitude(docID), c.Magnitude()
	if magDoc == 0 || magC == 0 {
		return 0
	}
	return centroidDot(m.store, docID, c) / (magDoc * magC)
}

func (m *cosineMetric) Better(a, b float64) bool {
	return a > b
}

func (m *cosineMetric) Name() string {
	return config.MetricCosine
}
