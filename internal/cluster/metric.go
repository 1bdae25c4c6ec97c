// Package cluster implements K-means clustering over the sparse corpus
// store: pluggable similarity metrics, centroid seeding strategies, and the
// fixed-iteration assign/update engine.
package cluster

import (
	"math"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// Centroid is a term -> weight mapping. It does not have to correspond to any
// real document and lives for exactly one engine pass.
type Centroid map[int]float64

// Metric scores how well two vectors match. Better encodes the selection
// direction (higher-is-better for similarities, lower-is-better for
// distances) so the engine never branches on metric identity.
type Metric interface {
	// Compare scores two indexed documents against each other.
	Compare(a, b int) float64
	// CompareToCentroid scores an indexed document against an explicit
	// weight mapping that is not part of the corpus.
	CompareToCentroid(docID int, c Centroid) float64
	// Better reports whether score a beats score b.
	Better(a, b float64) bool
	// Name returns the config name of the metric.
	Name() string
}

// NewMetric builds the metric named in the config over the given store.
func NewMetric(name string, store *corpus.Store) (Metric, error) {
	switch name {
	case config.MetricCosine:
		return &cosineMetric{store: store}, nil
	case config.MetricDotProduct:
		return &dotProductMetric{store: store}, nil
	case config.MetricEuclidean:
		return &euclideanMetric{store: store}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown metric %q", name)
	}
}

// sparseDot computes the dot product of two indexed documents by iterating
// the smaller vector's nonzero terms and probing the other through the
// inverted index. Cost is proportional to sparsity, never to vocabulary size.
func sparseDot(store *corpus.Store, a, b int) float64 {
	va, vb := store.VectorOf(a), store.VectorOf(b)
	if len(vb) < len(va) {
		va = vb
		a, b = b, a
	}
	var dot float64
	for _, p := range va {
		dot += p.Weight * store.Weight(p.Term, b)
	}
	return dot
}

// centroidDot probes the centroid map for each of the document's terms.
func centroidDot(store *corpus.Store, docID int, c Centroid) float64 {
	var dot float64
	for _, p := range store.VectorOf(docID) {
		dot += p.Weight * c[p.Term]
	}
	return dot
}

// Magnitude returns sqrt(sum(weight^2)) of a centroid.
func (c Centroid) Magnitude() float64 {
	var sumSq float64
	for _, w := range c {
		sumSq += w * w
	}
	return math.Sqrt(sumSq)
}
