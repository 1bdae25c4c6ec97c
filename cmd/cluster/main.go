package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docstream-labs/corpus-clustering-platform/internal/cluster"
	"github.com/docstream-labs/corpus-clustering-platform/internal/corpus"
	"github.com/docstream-labs/corpus-clustering-platform/internal/eval"
	"github.com/docstream-labs/corpus-clustering-platform/internal/report"
	"github.com/docstream-labs/corpus-clustering-platform/internal/weighting"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/config"
	apperrors "github.com/docstream-labs/corpus-clustering-platform/pkg/errors"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/health"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/kafka"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/logger"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/metrics"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/postgres"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/redis"
	"github.com/docstream-labs/corpus-clustering-platform/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/cluster.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "corpus file override")
	labelsPath := flag.String("labels", "", "ground-truth labels file override")
	outPath := flag.String("out", "", "write final assignments here, one cluster index per line")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Corpus.Source = config.SourceFile
		cfg.Corpus.Path = *corpusPath
	}
	if *labelsPath != "" {
		cfg.Eval.LabelsPath = *labelsPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.Clustering.Validate(); err != nil {
		slog.Error("invalid clustering configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collectors *metrics.Metrics
	if cfg.Metrics.Enabled {
		collectors = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	deps, err := connectDependencies(ctx, cfg)
	if err != nil {
		slog.Error("dependency setup failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := run(ctx, cfg, deps, collectors, *outPath); err != nil {
		slog.Error("clustering run failed", "error", err)
		if collectors != nil {
			collectors.RunsTotal.WithLabelValues("failed").Inc()
		}
		os.Exit(1)
	}
}

// dependencies bundles the optional external clients for one run.
type dependencies struct {
	postgres  *postgres.Client
	publisher *report.Publisher
	summaries *report.SummaryStore
	redis     *redis.Client
}

func (d *dependencies) Close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			slog.Error("closing kafka publisher", "error", err)
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			slog.Error("closing redis client", "error", err)
		}
	}
	if d.postgres != nil {
		if err := d.postgres.Close(); err != nil {
			slog.Error("closing postgres client", "error", err)
		}
	}
}

// connectDependencies dials only the sinks and sources the config enables and
// runs a concurrent preflight check over them before any clustering work.
func connectDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}
	checker := health.NewChecker()
	needed := false

	if cfg.Corpus.Source == config.SourcePostgres {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		deps.postgres = client
		checker.Register("postgres", health.PingCheck(client.Ping))
		needed = true
	}
	if cfg.Report.RedisEnabled {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		deps.redis = client
		deps.summaries = report.NewSummaryStore(client, cfg.Redis.SummaryTTL)
		checker.Register("redis", health.PingCheck(client.Ping))
		needed = true
	}
	if cfg.Report.KafkaEnabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunEvents)
		deps.publisher = report.NewPublisher(producer)
	}

	if needed {
		reportOut := checker.Run(ctx)
		if reportOut.Status == health.StatusDown {
			deps.Close()
			return nil, apperrors.New(apperrors.ErrCorpusUnavailable, "preflight checks failed")
		}
	}
	return deps, nil
}

func run(ctx context.Context, cfg *config.Config, deps *dependencies, collectors *metrics.Metrics, outPath string) error {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	runStart := time.Now()

	ctx, root := tracing.StartSpan(ctx, "cluster-run", runID)
	defer func() {
		root.End()
		root.Log()
	}()

	store, err := loadCorpus(ctx, cfg, deps, collectors)
	if err != nil {
		return err
	}
	log.Info("corpus loaded",
		"documents", store.Len(),
		"terms", store.Terms(),
		"source", cfg.Corpus.Source,
	)

	if deps.publisher != nil {
		deps.publisher.Publish(ctx, report.RunEvent{
			Type:        report.EventRunStarted,
			RunID:       runID,
			K:           cfg.Clustering.K,
			Iterations:  cfg.Clustering.Iterations,
			Metric:      cfg.Clustering.Metric,
			Initializer: cfg.Clustering.Initializer,
			Weighting:   cfg.Clustering.Weighting,
			Documents:   store.Len(),
		})
	}

	if cfg.Clustering.Weighting == config.WeightingTFIDF {
		_, span := tracing.StartChildSpan(ctx, "tfidf")
		store, err = weighting.TFIDF(store)
		span.End()
		if err != nil {
			return fmt.Errorf("applying tf-idf: %w", err)
		}
	}

	engine, err := cluster.NewEngine(store, cfg.Clustering)
	if err != nil {
		return err
	}
	if collectors != nil {
		engine.SetCollectors(collectors)
	}

	engineCtx, span := tracing.StartChildSpan(ctx, "engine")
	result, err := engine.Run(engineCtx)
	span.End()
	if err != nil {
		if deps.publisher != nil {
			deps.publisher.Publish(ctx, report.RunEvent{
				Type:  report.EventRunFailed,
				RunID: runID,
				Error: err.Error(),
			})
		}
		return err
	}
	span.SetAttr("passes", result.Passes)
	span.SetAttr("reassignments", result.Reassignments)

	var score *float64
	if cfg.Eval.LabelsPath != "" {
		_, evalSpan := tracing.StartChildSpan(ctx, "evaluate")
		s, err := evaluate(cfg, store.Len(), result)
		evalSpan.End()
		if err != nil {
			return err
		}
		score = &s
		log.Info("run evaluated", "quality_score", s)
		if collectors != nil {
			collectors.QualityScore.
				WithLabelValues(cfg.Clustering.Metric, cfg.Clustering.Initializer, cfg.Clustering.Weighting).
				Set(s)
		}
	}

	if outPath != "" {
		if err := writeAssignments(outPath, result.Assignments); err != nil {
			return err
		}
		log.Info("assignments written", "path", outPath)
	}

	duration := time.Since(runStart)
	if collectors != nil {
		collectors.RunsTotal.WithLabelValues("completed").Inc()
		collectors.RunDuration.
			WithLabelValues(cfg.Clustering.Metric, cfg.Clustering.Initializer).
			Observe(duration.Seconds())
	}

	active := 0
	for _, size := range result.ClusterSizes {
		if size > 0 {
			active++
		}
	}
	if deps.publisher != nil {
		deps.publisher.Publish(ctx, report.RunEvent{
			Type:               report.EventRunCompleted,
			RunID:              runID,
			K:                  cfg.Clustering.K,
			Iterations:         cfg.Clustering.Iterations,
			Metric:             cfg.Clustering.Metric,
			Initializer:        cfg.Clustering.Initializer,
			Weighting:          cfg.Clustering.Weighting,
			Documents:          store.Len(),
			DurationMs:         duration.Milliseconds(),
			Reassignments:      result.Reassignments,
			EmptyClusterEvents: result.EmptyClusterEvents,
			QualityScore:       score,
		})
	}
	if deps.summaries != nil {
		deps.summaries.Save(ctx, cfg.Clustering, report.RunSummary{
			RunID:              runID,
			CompletedAt:        time.Now().UTC().Format(time.RFC3339),
			Documents:          store.Len(),
			Passes:             result.Passes,
			Reassignments:      result.Reassignments,
			EmptyClusterEvents: result.EmptyClusterEvents,
			ActiveClusters:     active,
			QualityScore:       score,
			DurationMs:         duration.Milliseconds(),
		})
	}

	log.Info("clustering run complete",
		"passes", result.Passes,
		"reassignments", result.Reassignments,
		"empty_cluster_events", result.EmptyClusterEvents,
		"active_clusters", active,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

func loadCorpus(ctx context.Context, cfg *config.Config, deps *dependencies, collectors *metrics.Metrics) (*corpus.Store, error) {
	_, span := tracing.StartChildSpan(ctx, "load-corpus")
	defer span.End()
	start := time.Now()

	var store *corpus.Store
	var err error
	switch cfg.Corpus.Source {
	case config.SourceFile:
		store, err = corpus.LoadFile(cfg.Corpus.Path)
	case config.SourcePostgres:
		store, err = corpus.NewPostgresSource(deps.postgres, cfg.Corpus.Table).Load(ctx)
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown corpus source %q", cfg.Corpus.Source)
	}
	if err != nil {
		return nil, err
	}

	if collectors != nil {
		collectors.DocumentsLoaded.Set(float64(store.Len()))
		collectors.CorpusLoadDuration.
			WithLabelValues(cfg.Corpus.Source).
			Observe(time.Since(start).Seconds())
	}
	span.SetAttr("documents", store.Len())
	return store, nil
}

func evaluate(cfg *config.Config, n int, result *cluster.Result) (float64, error) {
	labels, err := eval.LoadLabelsFile(cfg.Eval.LabelsPath)
	if err != nil {
		return 0, err
	}
	if len(labels) != n {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput,
			"labels file has %d lines, corpus has %d documents", len(labels), n)
	}
	return eval.Score(result.Assignments, cfg.Clustering.K, labels)
}

func writeAssignments(path string, assignments []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, c := range assignments {
		fmt.Fprintln(w, c)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing assignments: %w", err)
	}
	return nil
}
