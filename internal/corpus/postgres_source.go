package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/postgres"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/resilience"
)

// PostgresSource loads document vectors from a Postgres table with columns
// (doc_id INT, vector TEXT), where vector holds the same termID:weight token
// format as the flat-file corpus. Rows are read in doc_id order so document
// ids match ingestion order.
type PostgresSource struct {
	client *postgres.Client
	table  string
	logger *slog.Logger
}

// NewPostgresSource wraps an existing Postgres client.
func NewPostgresSource(client *postgres.Client, table string) *PostgresSource {
	return &PostgresSource{
		client: client,
		table:  table,
		logger: slog.Default().With("component", "postgres-corpus"),
	}
}

// Load fetches every row and builds the store. The query is retried with
// backoff; doc_id values must be the dense sequence 0..N-1.
func (s *PostgresSource) Load(ctx context.Context) (*Store, error) {
	var docs [][]Pair
	query := fmt.Sprintf("SELECT doc_id, vector FROM %s ORDER BY doc_id", s.table)

	err := resilience.Retry(ctx, "corpus-load", resilience.RetryConfig{}, func() error {
		rows, err := s.client.DB.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("querying %s: %w", s.table, err)
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			var docID int
			var vector string
			if err := rows.Scan(&docID, &vector); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}
			if docID != len(docs) {
				return apperrors.Newf(apperrors.ErrInvalidInput,
					"non-contiguous doc_id %d at position %d", docID, len(docs))
			}
			pairs, err := parseLine(vector)
			if err != nil {
				return apperrors.Newf(apperrors.ErrInvalidInput,
					"doc_id %d: %v", docID, err)
			}
			docs = append(docs, pairs)
		}
		return rows.Err()
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, apperrors.Newf(apperrors.ErrCorpusUnavailable, "%v", err)
	}

	s.logger.Info("corpus loaded from postgres", "table", s.table, "documents", len(docs))
	return NewStore(docs)
}

func parseLine(line string) ([]Pair, error) {
	fields := strings.Fields(line)
	pairs := make([]Pair, 0, len(fields))
	for _, field := range fields {
		pair, err := parseToken(field)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
