package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", testKey)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Resolution.Threshold)
	assert.Equal(t, 3, cfg.Resolution.RetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Resolution.RetryInitialBackoff)
	assert.Equal(t, 50, cfg.Resolution.HistoryDefault)
	assert.Equal(t, 500, cfg.Resolution.HistoryMax)
	assert.Equal(t, "identity.resolutions", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ParsesLists(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", testKey)
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, broker-2:9092 ,broker-1:9092")
	t.Setenv("IDGRAPH_STORAGE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/idgraph")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, StoragePostgres, cfg.Storage)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		t.Setenv("JWT_SIGNING_KEY", testKey)
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown storage", func(c *Config) { c.Storage = "sqlite" }, "IDGRAPH_STORAGE"},
		{"postgres without url", func(c *Config) { c.Storage = StoragePostgres }, "DATABASE_URL"},
		{"short signing key", func(c *Config) { c.Server.JWTSigningKey = "short" }, "JWT_SIGNING_KEY"},
		{"threshold above 100", func(c *Config) { c.Resolution.Threshold = 101 }, "RESOLUTION_THRESHOLD"},
		{"zero retry attempts", func(c *Config) { c.Resolution.RetryAttempts = 0 }, "RESOLUTION_RETRY_ATTEMPTS"},
		{"history default above max", func(c *Config) { c.Resolution.HistoryDefault = 600 }, "history limits"},
		{"brokers without topic", func(c *Config) { c.Kafka.Brokers = []string{"b:9092"}; c.Kafka.Topic = "" }, "KAFKA_TOPIC"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("IDGRAPH_TEST_DOTENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("IDGRAPH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("IDGRAPH_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "none.env")))
}
