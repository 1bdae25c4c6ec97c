// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Corpus, Clustering, Postgres, Kafka, Redis, Report, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metric names accepted by ClusteringConfig.Metric.
const (
	MetricCosine     = "cosine"
	MetricDotProduct = "dot-product"
	MetricEuclidean  = "euclidean"
)

// Initializer names accepted by ClusteringConfig.Initializer.
const (
	InitUniformRandom = "uniform-random"
	InitKMeansPP      = "k-means++"
)

// Weighting names accepted by ClusteringConfig.Weighting.
const (
	WeightingRaw   = "raw"
	WeightingTFIDF = "tf-idf"
)

// Empty-cluster policies accepted by ClusteringConfig.EmptyClusterPolicy.
const (
	EmptyClusterFreeze = "freeze"
	EmptyClusterReseed = "reseed"
)

// Corpus source kinds accepted by CorpusConfig.Source.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Eval       EvalConfig       `yaml:"eval"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Report     ReportConfig     `yaml:"report"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CorpusConfig selects where document vectors are loaded from.
type CorpusConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Table  string `yaml:"table"`
}

// ClusteringConfig is the configuration surface of the clustering engine.
type ClusteringConfig struct {
	K                  int    `yaml:"k"`
	Iterations         int    `yaml:"iterations"`
	Metric             string `yaml:"metric"`
	Initializer        string `yaml:"initializer"`
	Weighting          string `yaml:"weighting"`
	EmptyClusterPolicy string `yaml:"emptyClusterPolicy"`
	Seed               int64  `yaml:"seed"`
	Workers            int    `yaml:"workers"`
}

// EvalConfig controls the optional quality-score evaluation after a run.
type EvalConfig struct {
	LabelsPath string `yaml:"labelsPath"`
}

// PostgresConfig holds PostgreSQL connection parameters for the corpus source.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings for run events.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	RunEvents string `yaml:"runEvents"`
}

// RedisConfig holds Redis connection parameters for the run-summary cache.
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	PoolSize   int           `yaml:"poolSize"`
	SummaryTTL time.Duration `yaml:"summaryTTL"`
}

// ReportConfig gates the optional run-reporting sinks.
type ReportConfig struct {
	KafkaEnabled bool `yaml:"kafkaEnabled"`
	RedisEnabled bool `yaml:"redisEnabled"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate rejects configurations the engine must never see. The K <= N bound
// depends on the loaded corpus and is checked by the engine itself.
func (c *ClusteringConfig) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("clustering.k must be >= 1, got %d", c.K)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("clustering.iterations must be >= 0, got %d", c.Iterations)
	}
	switch c.Metric {
	case MetricCosine, MetricDotProduct, MetricEuclidean:
	default:
		return fmt.Errorf("clustering.metric must be one of cosine, dot-product, euclidean; got %q", c.Metric)
	}
	switch c.Initializer {
	case InitUniformRandom, InitKMeansPP:
	default:
		return fmt.Errorf("clustering.initializer must be uniform-random or k-means++; got %q", c.Initializer)
	}
	switch c.Weighting {
	case WeightingRaw, WeightingTFIDF:
	default:
		return fmt.Errorf("clustering.weighting must be raw or tf-idf; got %q", c.Weighting)
	}
	switch c.EmptyClusterPolicy {
	case EmptyClusterFreeze, EmptyClusterReseed:
	default:
		return fmt.Errorf("clustering.emptyClusterPolicy must be freeze or reseed; got %q", c.EmptyClusterPolicy)
	}
	if c.Workers < 1 {
		return fmt.Errorf("clustering.workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Source: SourceFile,
			Path:   "data/corpus.txt",
			Table:  "documents",
		},
		Clustering: ClusteringConfig{
			K:                  30,
			Iterations:         10,
			Metric:             MetricCosine,
			Initializer:        InitKMeansPP,
			Weighting:          WeightingRaw,
			EmptyClusterPolicy: EmptyClusterFreeze,
			Seed:               1,
			Workers:            1,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "corpuscluster",
			User:            "corpuscluster",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				RunEvents: "cluster-run-events",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			Password:   "",
			DB:         0,
			PoolSize:   10,
			SummaryTTL: 24 * time.Hour,
		},
		Report: ReportConfig{
			KafkaEnabled: false,
			RedisEnabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CP_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("CP_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("CP_CLUSTERING_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Clustering.K = k
		}
	}
	if v := os.Getenv("CP_CLUSTERING_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Clustering.Iterations = n
		}
	}
	if v := os.Getenv("CP_CLUSTERING_METRIC"); v != "" {
		cfg.Clustering.Metric = v
	}
	if v := os.Getenv("CP_CLUSTERING_INITIALIZER"); v != "" {
		cfg.Clustering.Initializer = v
	}
	if v := os.Getenv("CP_CLUSTERING_WEIGHTING"); v != "" {
		cfg.Clustering.Weighting = v
	}
	if v := os.Getenv("CP_CLUSTERING_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Clustering.Seed = seed
		}
	}
	if v := os.Getenv("CP_CLUSTERING_WORKERS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil {
			cfg.Clustering.Workers = w
		}
	}
	if v := os.Getenv("CP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("CP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
