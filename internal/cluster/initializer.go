package cluster

import (
	"math/rand"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// Initializer picks k distinct seed document ids for the engine's first
// centroids. Implementations draw from the supplied rand source only, so a
// fixed seed reproduces the same centers.
type Initializer interface {
	Seed(k int) ([]int, error)
	Name() string
}

// NewInitializer builds the initializer named in the config.
func NewInitializer(name string, store *corpus.Store, rng *rand.Rand) (Initializer, error) {
	switch name {
	case config.InitUniformRandom:
		return &uniformInitializer{store: store, rng: rng}, nil
	case config.InitKMeansPP:
		return &kmeansPPInitializer{
			store:  store,
			rng:    rng,
			cosine: &cosineMetric{store: store},
		}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown initializer %q", name)
	}
}

// uniformInitializer draws k distinct document ids uniformly without
// replacement. Fast, but nothing stops it from picking near-duplicate seeds.
type uniformInitializer struct {
	store *corpus.Store
	rng   *rand.Rand
}

func (u *uniformInitializer) Seed(k int) ([]int, error) {
	n := u.store.Len()
	if k > n {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "k=%d exceeds corpus size %d", k, n)
	}
	return u.rng.Perm(n)[:k], nil
}

func (u *uniformInitializer) Name() string {
	return config.InitUniformRandom
}

// kmeansPPInitializer implements K-means++ weighted sampling: the first
// center is uniform, and each following center is drawn with probability
// proportional to D(x)^2, where D(x) = 1 - cosine(x, nearest chosen center).
// Cosine is used as the distance proxy regardless of the engine's configured
// metric. Cost is O(k*n) similarity evaluations, each O(sparsity).
type kmeansPPInitializer struct {
	store  *corpus.Store
	rng    *rand.Rand
	cosine *cosineMetric
}

func (kp *kmeansPPInitializer) Seed(k int) ([]int, error) {
	n := kp.store.Len()
	if k > n {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "k=%d exceeds corpus size %d", k, n)
	}

	centers := make([]int, 0, k)
	first := kp.rng.Intn(n)
	centers = append(centers, first)

	// dist[i] holds D(i) against the nearest chosen center so far. Chosen
	// centers sit at 0 and carry no sampling weight, which keeps them
	// structurally eligible but never re-selected.
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = 1 - kp.cosine.Compare(i, first)
	}
	dist[first] = 0

	for len(centers) < k {
		var total float64
		for _, d := range dist {
			total += d * d
		}

		var next int
		if total == 0 {
			// Every remaining document coincides with a chosen center;
			// fall back to the first unchosen id.
			next = firstUnchosen(centers, n)
			if next < 0 {
				return nil, apperrors.Newf(apperrors.ErrInternal,
					"k-means++ exhausted candidates at %d of %d centers", len(centers), k)
			}
		} else {
			// Inverse-CDF draw over the D^2 distribution.
			threshold := kp.rng.Float64() * total
			var cumulative float64
			next = n - 1
			for i, d := range dist {
				cumulative += d * d
				if cumulative >= threshold {
					next = i
					break
				}
			}
		}

		centers = append(centers, next)
		for i := range dist {
			if d := 1 - kp.cosine.Compare(i, next); d < dist[i] {
				dist[i] = d
			}
		}
		dist[next] = 0
	}

	return centers, nil
}

func (kp *kmeansPPInitializer) Name() string {
	return config.InitKMeansPP
}

func firstUnchosen(centers []int, n int) int {
	chosen := make(map[int]struct{}, len(centers))
	for _, c := range centers {
		chosen[c] = struct{}{}
	}
	for i := 0; i < n; i++ {
		if _, ok := chosen[i]; !ok {
			return i
		}
	}
	return -1
}
