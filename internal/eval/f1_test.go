package eval

import (
	"errors"
	"math"
	"strings"
	"testing"

	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

func TestScorePerfectClustering(t *testing.T) {
	assignments := []int{0, 0, 1, 1}
	labels := []string{"sports", "sports", "politics", "politics"}
	score, err := Score(assignments, 2, labels)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(score-1) > 1e-12 {
		t.Errorf("score = %v, want 1 for a perfect clustering", score)
	}
}

func TestScoreRelabelInvariance(t *testing.T) {
	assignments := []int{0, 0, 1, 2, 2, 1}
	labels := []string{"a", "a", "b", "c", "c", "b"}
	base, err := Score(assignments, 3, labels)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// Permute cluster indices with a bijection; the score must not move.
	perm := map[int]int{0: 2, 1: 0, 2: 1}
	permuted := make([]int, len(assignments))
	for i, c := range assignments {
		permuted[i] = perm[c]
	}
	relabeled, err := Score(permuted, 3, labels)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(base-relabeled) > 1e-12 {
		t.Errorf("relabeling changed the score: %v vs %v", base, relabeled)
	}
}

func TestScoreUnlabeledExcluded(t *testing.T) {
	// Document 2 is unlabeled; it sits in cluster 0 but must not count
	// against the precision of group "a".
	withUnlabeled, err := Score([]int{0, 0, 0, 1}, 2, []string{"a", "a", Unlabeled, "b"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	without, err := Score([]int{0, 0, 1}, 2, []string{"a", "a", "b"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(withUnlabeled-without) > 1e-12 {
		t.Errorf("unlabeled document affected the score: %v vs %v", withUnlabeled, without)
	}
}

func TestScoreMixedClusters(t *testing.T) {
	// Group "a" = {0,1,2}; cluster 0 = {0,1,3}. tp=2, precision 2/3,
	// recall 2/3, f1 = 2/3. Group "b" = {3}; best against cluster 0:
	// tp=1, precision 1/3, recall 1, f1 = 1/2. Macro = (2/3 + 1/2) / 2.
	assignments := []int{0, 0, 1, 0}
	labels := []string{"a", "a", "a", "b"}
	score, err := Score(assignments, 2, labels)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := (2.0/3.0 + 0.5) / 2
	if math.Abs(score-want) > 1e-12 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestScoreValidation(t *testing.T) {
	if _, err := Score([]int{0, 1}, 2, []string{"a"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("length mismatch error = %v, want ErrInvalidInput", err)
	}
	if _, err := Score([]int{0, 5}, 2, []string{"a", "b"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("out-of-range cluster error = %v, want ErrInvalidInput", err)
	}
	if _, err := Score([]int{0}, 1, []string{Unlabeled}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("all-unlabeled error = %v, want ErrInvalidInput", err)
	}
}

func TestReadLabels(t *testing.T) {
	labels, err := ReadLabels(strings.NewReader("sports\n\npolitics\n"))
	if err != nil {
		t.Fatalf("ReadLabels: %v", err)
	}
	want := []string{"sports", Unlabeled, "politics"}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels, want %d", len(labels), len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d = %q, want %q", i, labels[i], want[i])
		}
	}
}
