package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultQueueCapacity, cfg.Summary.QueueCapacity)
	assert.Equal(t, time.Minute, cfg.Summary.ReportInterval)
	assert.Equal(t, 10*time.Second, cfg.Summary.ReportTimeout)
	assert.Equal(t, "perf-summary", cfg.Summary.WorkerName)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
summary:
  queueCapacity: 64
  reportInterval: 15s
  workerName: gw-summary
kafka:
  enabled: true
  brokers: ["localhost:9092"]
  topic: api-indicators
http:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Summary.QueueCapacity)
	assert.Equal(t, 15*time.Second, cfg.Summary.ReportInterval)
	assert.Equal(t, "gw-summary", cfg.Summary.WorkerName)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "api-indicators", cfg.Kafka.Topic)
	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.False(t, cfg.HTTP.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "summary:\n  queueCapacity: 64\n")
	t.Setenv("PERFSUMMARY_SUMMARY_QUEUECAPACITY", "128")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Summary.QueueCapacity)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "summary: [unclosed\n"))
	assert.ErrorIs(t, err, ErrReadingConfigFile)
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Summary: SummaryConfig{QueueCapacity: 1, ReportInterval: time.Second, ReportTimeout: time.Second},
			HTTP:    HTTPConfig{Enabled: true, Addr: ":0"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "capacity", mutate: func(c *Config) { c.Summary.QueueCapacity = 0 }, want: ErrInvalidQueueCapacity},
		{name: "interval", mutate: func(c *Config) { c.Summary.ReportInterval = 0 }, want: ErrInvalidReportInterval},
		{name: "timeout", mutate: func(c *Config) { c.Summary.ReportTimeout = -1 }, want: ErrInvalidReportTimeout},
		{name: "no source", mutate: func(c *Config) { c.HTTP.Enabled = false }, want: ErrNoRecordSource},
		{name: "http addr", mutate: func(c *Config) { c.HTTP.Addr = "" }, want: ErrEmptyHTTPAddr},
		{name: "kafka brokers", mutate: func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Topic: "t", GroupID: "g"} }, want: ErrEmptyKafkaBrokers},
		{name: "kafka topic", mutate: func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b"}, GroupID: "g"} }, want: ErrEmptyKafkaTopic},
		{name: "kafka group", mutate: func(c *Config) { c.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"b"}, Topic: "t"} }, want: ErrEmptyKafkaGroupID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
