package config

import "errors"

var (
	ErrReadingConfigFile       = errors.New("failed to read config file")
	ErrUnmarshallingConfig     = errors.New("failed to unmarshal config")
	ErrEmptyKafkaBrokers       = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic         = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID       = errors.New("kafka groupID cannot be empty")
	ErrEmptyKafkaConfigTopic   = errors.New("kafka configTopic cannot be empty")
	ErrInvalidHandlerWindow    = errors.New("handler window must be positive")
	ErrInvalidHandlerPrecision = errors.New("handler precision must be between 0 and 10")
	ErrInvalidSigmaMultiplier  = errors.New("handler sigmaMultiplier must not be negative")
	ErrConfigFileMissing       = errors.New("config file not found")
)
