package weighting

import (
	"math"
	"reflect"
	"testing"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
)

func mustStore(t *testing.T, docs [][]corpus.Pair) *corpus.Store {
	t.Helper()
	store, err := corpus.NewStore(docs)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestTFIDFValues(t *testing.T) {
	// Term 0 appears in 2 of 3 documents, term 1 in 1 of 3.
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 2}},
		{{Term: 0, Weight: 4}, {Term: 1, Weight: 3}},
		{{Term: 2, Weight: 1}},
	})

	weighted, err := TFIDF(store)
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}

	wantTerm0Doc0 := 2 * math.Log(3.0/2.0)
	if got := weighted.Weight(0, 0); math.Abs(got-wantTerm0Doc0) > 1e-12 {
		t.Errorf("weight(term 0, doc 0) = %v, want %v", got, wantTerm0Doc0)
	}
	wantTerm1Doc1 := 3 * math.Log(3.0)
	if got := weighted.Weight(1, 1); math.Abs(got-wantTerm1Doc1) > 1e-12 {
		t.Errorf("weight(term 1, doc 1) = %v, want %v", got, wantTerm1Doc1)
	}
}

func TestTFIDFUbiquitousTermDropsToZero(t *testing.T) {
	// Term 0 is in every document: ln(N/df) = ln(1) = 0, so the term
	// vanishes from the sparse representation. Legitimate output.
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 1}, {Term: 1, Weight: 2}},
		{{Term: 0, Weight: 5}},
	})

	weighted, err := TFIDF(store)
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}
	if got := weighted.Weight(0, 0); got != 0 {
		t.Errorf("ubiquitous term weight = %v, want 0", got)
	}
	if weighted.PostingsOf(0) != nil {
		t.Error("ubiquitous term should have no postings after weighting")
	}
	if got := weighted.Weight(1, 0); got == 0 {
		t.Error("rare term must keep a nonzero weight")
	}
}

func TestTFIDFPure(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 2}},
		{{Term: 1, Weight: 3}},
	})
	before := store.Weight(0, 0)

	if _, err := TFIDF(store); err != nil {
		t.Fatalf("TFIDF: %v", err)
	}
	if got := store.Weight(0, 0); got != before {
		t.Errorf("input store mutated: weight %v -> %v", before, got)
	}
}

func TestTFIDFIdempotentDerivation(t *testing.T) {
	docs := [][]corpus.Pair{
		{{Term: 0, Weight: 2}, {Term: 1, Weight: 1}},
		{{Term: 0, Weight: 1}, {Term: 2, Weight: 4}},
		{{Term: 2, Weight: 2}},
	}
	first, err := TFIDF(mustStore(t, docs))
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}
	second, err := TFIDF(mustStore(t, docs))
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}
	for docID := 0; docID < first.Len(); docID++ {
		if !reflect.DeepEqual(first.VectorOf(docID), second.VectorOf(docID)) {
			t.Errorf("document %d weighted differently across identical derivations", docID)
		}
	}
}

func TestTFIDFLockstepPreserved(t *testing.T) {
	store := mustStore(t, [][]corpus.Pair{
		{{Term: 0, Weight: 2}, {Term: 1, Weight: 1}},
		{{Term: 1, Weight: 4}},
	})
	weighted, err := TFIDF(store)
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}
	for docID := 0; docID < weighted.Len(); docID++ {
		for _, p := range weighted.VectorOf(docID) {
			if got := weighted.Weight(p.Term, docID); got != p.Weight {
				t.Errorf("posting (%d, %d) = %v, vector has %v", p.Term, docID, got, p.Weight)
			}
		}
	}
}
