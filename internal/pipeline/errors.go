package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig      = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed        = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed       = errors.New("failed to commit Kafka offset")
	ErrPublishFailed           = errors.New("failed to publish config fragment")
	ErrHistoryLoadFailed       = errors.New("failed to load spread stat history")
	ErrConsumerCreationFailed  = errors.New("failed to create consumer")
	ErrPublisherCreationFailed = errors.New("failed to create publisher")
	ErrConsumerRunFailed       = errors.New("consumer component failed")
	ErrHandlerRunFailed        = errors.New("handler component failed")
	ErrMetricsServerFailed     = errors.New("metrics server failed")
)
