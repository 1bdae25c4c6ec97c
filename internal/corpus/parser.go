package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
)

// ParseReader reads the line-oriented corpus format: one document per line,
// each line a whitespace-separated list of termID:weight tokens. Blank lines
// yield empty vectors so document ids stay aligned with line numbers.
func ParseReader(r io.Reader) ([][]Pair, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs [][]Pair
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		pairs := make([]Pair, 0, len(fields))
		for _, field := range fields {
			pair, err := parseToken(field)
			if err != nil {
				return nil, apperrors.Newf(apperrors.ErrInvalidInput,
					"line %d: %v", lineNum, err)
			}
			pairs = append(pairs, pair)
		}
		docs = append(docs, pairs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return docs, nil
}

func parseToken(token string) (Pair, error) {
	idx := strings.IndexByte(token, ':')
	if idx <= 0 || idx == len(token)-1 {
		return Pair{}, fmt.Errorf("malformed token %q, want termID:weight", token)
	}
	term, err := strconv.Atoi(token[:idx])
	if err != nil || term < 0 {
		return Pair{}, fmt.Errorf("malformed term id in token %q", token)
	}
	weight, err := strconv.ParseFloat(token[idx+1:], 64)
	if err != nil || weight < 0 {
		return Pair{}, fmt.Errorf("malformed weight in token %q", token)
	}
	return Pair{Term: term, Weight: weight}, nil
}

// LoadFile parses a corpus file and builds the store over it.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	defer f.Close()

	docs, err := ParseReader(f)
	if err != nil {
		return nil, err
	}
	return NewStore(docs)
}
