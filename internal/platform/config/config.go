// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pstrings "idgraph/pkg/platform/strings"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	minSigningKeyLen = 32
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Resolution ResolutionConfig
	Log        LogConfig

	// Storage selects the backing stores: "memory" or "postgres".
	Storage string `env:"IDGRAPH_STORAGE" envDefault:"memory"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `env:"IDGRAPH_ADDR" envDefault:":8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:""`
	RequestTimeout  time.Duration `env:"IDGRAPH_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"IDGRAPH_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig is optional; an empty URL disables the directory cache and
// the Redis IP intel store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`

	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"5m"`
	NegativeCacheTTL  time.Duration `env:"DIRECTORY_NEGATIVE_CACHE_TTL" envDefault:"30s"`
	IPIntelKey        string        `env:"IPINTEL_REDIS_KEY" envDefault:"idgraph:ipintel"`
}

// KafkaConfig is optional; no brokers means entries are only logged.
type KafkaConfig struct {
	Brokers           []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic             string        `env:"KAFKA_TOPIC" envDefault:"identity.resolutions"`
	Partitions        int32         `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"6"`
	ReplicationFactor int16         `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
	RelayBatchSize    int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	RelayPollInterval time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"1s"`
	RelayMaxAttempts  int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" envDefault:"25"`
	PublishBuffer     int           `env:"PUBLISH_BUFFER" envDefault:"1024"`
}

type ResolutionConfig struct {
	Threshold           int           `env:"RESOLUTION_THRESHOLD" envDefault:"60"`
	RetryAttempts       int           `env:"RESOLUTION_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInitialBackoff time.Duration `env:"RESOLUTION_RETRY_INITIAL_BACKOFF" envDefault:"50ms"`
	RetryMaxBackoff     time.Duration `env:"RESOLUTION_RETRY_MAX_BACKOFF" envDefault:"1s"`
	HistoryDefault      int           `env:"HISTORY_DEFAULT_LIMIT" envDefault:"50"`
	HistoryMax          int           `env:"HISTORY_MAX_LIMIT" envDefault:"500"`
	DropBots            bool          `env:"RESOLUTION_DROP_BOTS" envDefault:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadDotEnv loads the given .env files that exist. Variables already set in
// the environment win.
func LoadDotEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.Kafka.Brokers = pstrings.DedupeAndTrim(c.Kafka.Brokers)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when IDGRAPH_STORAGE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("IDGRAPH_STORAGE must be %q or %q", StorageMemory, StoragePostgres))
	}

	if len(c.Server.JWTSigningKey) < minSigningKeyLen {
		errs = append(errs, fmt.Errorf("JWT_SIGNING_KEY must be at least %d bytes", minSigningKeyLen))
	}

	r := c.Resolution
	if r.Threshold < 1 || r.Threshold > 100 {
		errs = append(errs, errors.New("RESOLUTION_THRESHOLD must be between 1 and 100"))
	}
	if r.RetryAttempts < 1 {
		errs = append(errs, errors.New("RESOLUTION_RETRY_ATTEMPTS must be at least 1"))
	}
	if r.HistoryDefault < 1 || r.HistoryMax < r.HistoryDefault {
		errs = append(errs, errors.New("history limits must satisfy 1 <= HISTORY_DEFAULT_LIMIT <= HISTORY_MAX_LIMIT"))
	}

	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, errors.New("LOG_LEVEL must be one of debug, info, warn, error"))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, errors.New("LOG_FORMAT must be json or text"))
	}
	return errors.Join(errs...)
}
