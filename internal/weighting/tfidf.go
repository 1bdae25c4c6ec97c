// Package weighting implements the TF-IDF transform that reshapes corpus
// weights before clustering.
package weighting

import (
	"log/slog"
	"math"

	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
)

// TFIDF replaces every weight w for (term, document) with w * ln(N / df),
// where df is the term's posting-list size and N the document count. It is a
// pure transform: the input store is untouched and a new store/index pair is
// returned, derived entirely from the existing inverted index without
// re-parsing. Terms present in every document get weight 0 and drop out of
// the sparse representation, which is legitimate output, not an error.
func TFIDF(store *corpus.Store) (*corpus.Store, error) {
	n := store.Len()
	docs := make([][]corpus.Pair, n)

	for docID := 0; docID < n; docID++ {
		vec := store.VectorOf(docID)
		weighted := make([]corpus.Pair, 0, len(vec))
		for _, p := range vec {
			idf := math.Log(float64(n) / float64(store.DocFrequency(p.Term)))
			weighted = append(weighted, corpus.Pair{
				Term:   p.Term,
				Weight: p.Weight * idf,
			})
		}
		docs[docID] = weighted
	}

	out, err := corpus.NewStore(docs)
	if err != nil {
		return nil, err
	}
	slog.Default().With("component", "tfidf").Info("corpus reweighted",
		"documents", n,
		"terms_before", store.Terms(),
		"terms_after", out.Terms(),
	)
	return out, nil
}
