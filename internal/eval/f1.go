// Package eval scores a clustering against a held-out labeling with a
// macro-averaged best-match F1. It consumes the engine's produced interface
// (the assignment array) and a label stream; it never touches engine internals.
package eval

import (
	"log/slog"

	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// noMatch marks a ground-truth group with zero true-positive overlap against
// every produced cluster. Such groups are excluded from the macro average.
const noMatch = -1.0

// Score computes the macro best-match F1 of assignments against labels.
// For every ground-truth group the best F1 against any produced cluster is
// taken (clusters with zero overlap are skipped), then the per-group bests
// are averaged. Unlabeled documents are excluded from both sides. The score
// is invariant under any permutation of cluster indices.
func Score(assignments []int, k int, labels []string) (float64, error) {
	if len(assignments) != len(labels) {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput,
			"assignments length %d does not match labels length %d", len(assignments), len(labels))
	}

	// Membership sets over labeled documents only.
	clusters := make([]map[int]struct{}, k)
	for c := range clusters {
		clusters[c] = make(map[int]struct{})
	}
	groups := make(map[string]map[int]struct{})
	for docID, label := range labels {
		if label == Unlabeled {
			continue
		}
		c := assignments[docID]
		if c < 0 || c >= k {
			return 0, apperrors.Newf(apperrors.ErrInvalidInput,
				"document %d: cluster index %d out of range 0..%d", docID, c, k-1)
		}
		clusters[c][docID] = struct{}{}
		if groups[label] == nil {
			groups[label] = make(map[int]struct{})
		}
		groups[label][docID] = struct{}{}
	}
	if len(groups) == 0 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, "no labeled documents to score")
	}

	var sum float64
	scored := 0
	for label, group := range groups {
		best := bestF1(group, clusters)
		if best == noMatch {
			slog.Warn("ground-truth group matched no cluster", "label", label)
			continue
		}
		sum += best
		scored++
	}
	if scored == 0 {
		return 0, nil
	}
	return sum / float64(scored), nil
}

// bestF1 returns the highest F1 of the group against any cluster, or noMatch
// when every cluster has zero true-positive overlap.
func bestF1(group map[int]struct{}, clusters []map[int]struct{}) float64 {
	best := noMatch
	for _, cluster := range clusters {
		tp := overlap(group, cluster)
		if tp == 0 {
			continue
		}
		precision := float64(tp) / float64(len(cluster))
		recall := float64(tp) / float64(len(group))
		f1 := 2 * precision * recall / (precision + recall)
		if f1 > best {
			best = f1
		}
	}
	return best
}

func overlap(a, b map[int]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if _, ok := b[id]; ok {
			count++
		}
	}
	return count
}
