package config

import "errors"

var (
	ErrReadingConfigFile     = errors.New("failed to read config file")
	ErrUnmarshallingConfig   = errors.New("failed to unmarshal config")
	ErrConfigFileMissing     = errors.New("config file not found")
	ErrInvalidQueueCapacity  = errors.New("summary queueCapacity must be positive")
	ErrInvalidReportInterval = errors.New("summary reportInterval must be positive")
	ErrInvalidReportTimeout  = errors.New("summary reportTimeout must be positive")
	ErrNoRecordSource        = errors.New("at least one of kafka or http must be enabled")
	ErrEmptyKafkaBrokers     = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic       = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID     = errors.New("kafka groupID cannot be empty")
	ErrEmptyHTTPAddr         = errors.New("http addr cannot be empty")
)
