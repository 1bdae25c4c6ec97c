package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/docstream-labs/corpus-clustering-platform/internal/eval"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/logger"
)

func main() {
	assignmentsPath := flag.String("assignments", "", "file with one cluster index per line")
	labelsPath := flag.String("labels", "", "file with one ground-truth label per line (blank = unlabeled)")
	k := flag.Int("k", 0, "number of clusters; 0 derives it from the assignments")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	_ = godotenv.Load()
	logger.Setup(*level, "text")

	if *assignmentsPath == "" || *labelsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -assignments <file> -labels <file> [-k <int>]")
		os.Exit(1)
	}

	assignments, err := readAssignments(*assignmentsPath)
	if err != nil {
		slog.Error("reading assignments", "error", err)
		os.Exit(1)
	}
	labels, err := eval.LoadLabelsFile(*labelsPath)
	if err != nil {
		slog.Error("reading labels", "error", err)
		os.Exit(1)
	}

	clusters := *k
	if clusters == 0 {
		for _, c := range assignments {
			if c >= clusters {
				clusters = c + 1
			}
		}
	}

	score, err := eval.Score(assignments, clusters, labels)
	if err != nil {
		slog.Error("scoring failed", "error", err)
		os.Exit(1)
	}

	slog.Info("evaluation complete",
		"documents", len(assignments),
		"k", clusters,
		"quality_score", score,
	)
	fmt.Printf("%.6f\n", score)
}

func readAssignments(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening assignments file %s: %w", path, err)
	}
	defer f.Close()

	var assignments []int
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		c, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: malformed cluster index %q", lineNum, text)
		}
		assignments = append(assignments, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}
	return assignments, nil
}
