package env

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every setting of the item service and the batch worker.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string

	PoolSize        int
	PoolQueueSize   int
	ProcessDelay    time.Duration
	BatchTimeout    time.Duration
	ShutdownTimeout time.Duration

	Kafka KafkaConfig
	Minio MinioConfig
}

// KafkaConfig configures outcome publishing and batch triggers.
type KafkaConfig struct {
	Broker       string
	OutcomeTopic string
	RequestTopic string
	GroupID      string
}

// PublishEnabled reports whether outcome events should be published.
func (k KafkaConfig) PublishEnabled() bool {
	return k.Broker != "" && k.OutcomeTopic != ""
}

// MinioConfig configures the batch report archive.
type MinioConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	ReportBucket string
}

// ArchiveEnabled reports whether batch reports should be archived.
func (m MinioConfig) ArchiveEnabled() bool {
	return m.Endpoint != "" && m.ReportBucket != ""
}

// Load reads the configuration from the environment, applying defaults for
// unset keys.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    getString("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getString("LOG_LEVEL", "info"),
		Kafka: KafkaConfig{
			Broker:       os.Getenv("KAFKA_BROKER"),
			OutcomeTopic: os.Getenv("KAFKA_OUTCOME_TOPIC"),
			RequestTopic: os.Getenv("KAFKA_REQUEST_TOPIC"),
			GroupID:      getString("KAFKA_GROUP_ID", "item-batch-worker"),
		},
		Minio: MinioConfig{
			Endpoint:     os.Getenv("MINIO_ENDPOINT"),
			AccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:    os.Getenv("MINIO_SECRET_KEY"),
			ReportBucket: os.Getenv("REPORT_BUCKET_NAME"),
		},
	}

	var err error
	if cfg.PoolSize, err = getInt("POOL_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.PoolQueueSize, err = getInt("POOL_QUEUE_SIZE", 1000); err != nil {
		return Config{}, err
	}
	if cfg.ProcessDelay, err = getDuration("PROCESS_DELAY", 100*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.BatchTimeout, err = getDuration("BATCH_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Minio.UseSSL, err = getBool("MINIO_USE_SSL", false); err != nil {
		return Config{}, err
	}

	if cfg.PoolSize < 1 {
		return Config{}, fmt.Errorf("POOL_SIZE must be at least 1, got %d", cfg.PoolSize)
	}
	if cfg.PoolQueueSize < 1 {
		return Config{}, fmt.Errorf("POOL_QUEUE_SIZE must be at least 1, got %d", cfg.PoolQueueSize)
	}
	if cfg.Minio.ArchiveEnabled() && (cfg.Minio.AccessKey == "" || cfg.Minio.SecretKey == "") {
		return Config{}, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
