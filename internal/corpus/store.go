// Package corpus holds the sparse document-vector store and the inverted
// index built alongside it. The two structures are constructed in one pass
// and kept in lockstep: every nonzero (term, weight) pair in a document's
// vector has a matching posting, and vice versa.
package corpus

import (
	"math"
	"sort"

	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// Pair is one nonzero entry of a document's sparse vector.
type Pair struct {
	Term   int
	Weight float64
}

// Store owns the sparse vectors of all documents plus the inverted index over
// them. Documents are identified by their dense ingestion-order index 0..N-1
// and are immutable once the store is built; the only way to change weights
// is to build a new Store (see the weighting package).
type Store struct {
	vectors    [][]Pair
	magnitudes []float64
	postings   map[int]map[int]float64
}

// NewStore builds both representations from parsed per-document pairs.
// Validation is all-or-nothing: a negative term id, a negative weight, or a
// duplicate term within one document rejects the entire corpus before any
// state is published. Zero-weight pairs are dropped; a zero weight and an
// absent term are the same thing in a sparse vector.
func NewStore(docs [][]Pair) (*Store, error) {
	s := &Store{
		vectors:    make([][]Pair, len(docs)),
		magnitudes: make([]float64, len(docs)),
		postings:   make(map[int]map[int]float64),
	}

	for docID, pairs := range docs {
		seen := make(map[int]struct{}, len(pairs))
		vec := make([]Pair, 0, len(pairs))
		for _, p := range pairs {
			if p.Term < 0 {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"document %d: negative term id %d", docID, p.Term)
			}
			if p.Weight < 0 || math.IsNaN(p.Weight) {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"document %d, term %d: invalid weight %v", docID, p.Term, p.Weight)
			}
			if _, dup := seen[p.Term]; dup {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"document %d: duplicate term id %d", docID, p.Term)
			}
			seen[p.Term] = struct{}{}
			if p.Weight == 0 {
				continue
			}
			vec = append(vec, p)
		}
		sort.Slice(vec, func(i, j int) bool { return vec[i].Term < vec[j].Term })
		s.vectors[docID] = vec
	}

	// Publish postings and magnitudes only after the whole corpus validated.
	for docID, vec := range s.vectors {
		var sumSq float64
		for _, p := range vec {
			docMap, ok := s.postings[p.Term]
			if !ok {
				docMap = make(map[int]float64)
				s.postings[p.Term] = docMap
			}
			docMap[docID] = p.Weight
			sumSq += p.Weight * p.Weight
		}
		s.magnitudes[docID] = math.Sqrt(sumSq)
	}

	return s, nil
}

// Len returns the number of documents.
func (s *Store) Len() int {
	return len(s.vectors)
}

// VectorOf returns the document's sparse vector, sorted by term id. The
// returned slice is owned by the store and must not be mutated.
func (s *Store) VectorOf(docID int) []Pair {
	return s.vectors[docID]
}

// Magnitude returns sqrt(sum(weight^2)) for the document. A zero vector has
// magnitude 0; callers dividing by it must guard for that.
func (s *Store) Magnitude(docID int) float64 {
	return s.magnitudes[docID]
}

// PostingsOf returns the docID -> weight mapping for a term, or nil when no
// document carries the term. The returned map is owned by the store.
func (s *Store) PostingsOf(term int) map[int]float64 {
	return s.postings[term]
}

// Weight probes a single (term, document) cell via the inverted index.
// Absent cells read as 0.
func (s *Store) Weight(term, docID int) float64 {
	if docMap, ok := s.postings[term]; ok {
		return docMap[docID]
	}
	return 0
}

// DocFrequency returns the number of documents carrying the term.
func (s *Store) DocFrequency(term int) int {
	return len(s.postings[term])
}

// Terms returns the number of distinct terms with at least one posting.
func (s *Store) Terms() int {
	return len(s.postings)
}
