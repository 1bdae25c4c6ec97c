package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Unlabeled is the sentinel meaning a document has no ground-truth label and
// is excluded from scoring.
const Unlabeled = ""

// ReadLabels reads one ground-truth label per line, aligned with document
// ids. A blank line marks the document as unlabeled.
func ReadLabels(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var labels []string
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	return labels, nil
}

// LoadLabelsFile reads a label file from disk.
func LoadLabelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening labels file %s: %w", path, err)
	}
	defer f.Close()
	return ReadLabels(f)
}
