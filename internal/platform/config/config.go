package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"eldcore/internal/hos/regulation"
)

// Config is the full process configuration assembled from environment variables.
type Config struct {
	Server      Server
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Log         LogConfig
	Coordinator CoordinatorConfig
	// RuleSetPath points at an optional YAML rule set overriding the US defaults.
	RuleSetPath string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	MetricsAddr     string
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one API request, coordinator work included.
	RequestTimeout time.Duration
}

// PostgresConfig configures the event and violation stores.
// An empty DSN selects the in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// RedisConfig configures the live status cache.
// An empty URL selects the in-memory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StatusTTL    time.Duration
}

// KafkaConfig configures violation notifications.
// No brokers selects the log sink.
type KafkaConfig struct {
	Brokers           []string
	ViolationsTopic   string
	Partitions        int32
	ReplicationFactor int16
	EnsureTopic       bool
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// CoordinatorConfig bounds the per-driver pipeline.
type CoordinatorConfig struct {
	PersistTimeout   time.Duration
	NotifyBufferSize int
	NotifyBatchSize  int
	NotifyFlushEvery time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		v, err := durationEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	num := func(key string, def int) int {
		v, err := intEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		Server: Server{
			Addr:            stringEnv("HOS_ADDR", ":8080"),
			MetricsAddr:     stringEnv("HOS_METRICS_ADDR", ""),
			ShutdownTimeout: dur("HOS_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestTimeout:  dur("HOS_REQUEST_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("HOS_POSTGRES_DSN"),
			MaxOpenConns:    num("HOS_POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    num("HOS_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: dur("HOS_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
			MigrateOnStart:  stringEnv("HOS_POSTGRES_MIGRATE", "true") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("HOS_REDIS_URL"),
			PoolSize:     num("HOS_REDIS_POOL_SIZE", 10),
			MinIdleConns: num("HOS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("HOS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("HOS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("HOS_REDIS_WRITE_TIMEOUT", 3*time.Second),
			StatusTTL:    dur("HOS_STATUS_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("HOS_KAFKA_BROKERS")),
			ViolationsTopic:   stringEnv("HOS_KAFKA_VIOLATIONS_TOPIC", "hos.violations"),
			Partitions:        int32(num("HOS_KAFKA_PARTITIONS", 6)),
			ReplicationFactor: int16(num("HOS_KAFKA_REPLICATION_FACTOR", 1)),
			EnsureTopic:       stringEnv("HOS_KAFKA_ENSURE_TOPIC", "true") == "true",
		},
		Log: LogConfig{
			Level:  stringEnv("HOS_LOG_LEVEL", "info"),
			Format: stringEnv("HOS_LOG_FORMAT", "json"),
		},
		Coordinator: CoordinatorConfig{
			PersistTimeout:   dur("HOS_PERSIST_TIMEOUT", 5*time.Second),
			NotifyBufferSize: num("HOS_NOTIFY_BUFFER", 1024),
			NotifyBatchSize:  num("HOS_NOTIFY_BATCH", 64),
			NotifyFlushEvery: dur("HOS_NOTIFY_FLUSH_EVERY", time.Second),
		},
		RuleSetPath: os.Getenv("HOS_RULESET_PATH"),
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// LoadRuleSet returns the US defaults, overridden by the YAML file at path when set.
func LoadRuleSet(path string) (regulation.RuleSet, error) {
	if path == "" {
		return regulation.Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return regulation.RuleSet{}, fmt.Errorf("read rule set: %w", err)
	}
	rules, err := regulation.Parse(raw)
	if err != nil {
		return regulation.RuleSet{}, fmt.Errorf("parse rule set %s: %w", path, err)
	}
	return rules, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
