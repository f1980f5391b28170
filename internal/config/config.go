package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultQueueCapacity  = 1024
	defaultReportInterval = 1 * time.Minute
	defaultReportTimeout  = 10 * time.Second
	defaultWorkerName     = "perf-summary"
	defaultKafkaEnabled   = false
	defaultKafkaGroupID   = "perfsummary-default-group"
	defaultHTTPEnabled    = true
	defaultHTTPAddr       = ":8080"
	defaultHTTPTimeout    = 5 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "app.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	// Environment variable prefix
	envPrefix = "PERFSUMMARY"
)

type Config struct {
	Summary SummaryConfig `mapstructure:"summary"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
}

type SummaryConfig struct {
	QueueCapacity  int           `mapstructure:"queueCapacity"`
	ReportInterval time.Duration `mapstructure:"reportInterval"`
	ReportTimeout  time.Duration `mapstructure:"reportTimeout"` // how long the reporter waits on one snapshot
	WorkerName     string        `mapstructure:"workerName"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

type HTTPConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("summary.queueCapacity", defaultQueueCapacity)
	v.SetDefault("summary.reportInterval", defaultReportInterval)
	v.SetDefault("summary.reportTimeout", defaultReportTimeout)
	v.SetDefault("summary.workerName", defaultWorkerName)
	v.SetDefault("kafka.enabled", defaultKafkaEnabled)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("http.enabled", defaultHTTPEnabled)
	v.SetDefault("http.addr", defaultHTTPAddr)
	v.SetDefault("http.readTimeout", defaultHTTPTimeout)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Summary.QueueCapacity <= 0 {
		return ErrInvalidQueueCapacity
	}
	if cfg.Summary.ReportInterval <= 0 {
		return ErrInvalidReportInterval
	}
	if cfg.Summary.ReportTimeout <= 0 {
		return ErrInvalidReportTimeout
	}
	if !cfg.Kafka.Enabled && !cfg.HTTP.Enabled {
		return ErrNoRecordSource
	}
	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
	}
	if cfg.HTTP.Enabled && cfg.HTTP.Addr == "" {
		return ErrEmptyHTTPAddr
	}
	return nil
}
