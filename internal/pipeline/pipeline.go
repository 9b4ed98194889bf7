package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/spreadstat/internal/config"
	"github.com/sanspareilsmyn/spreadstat/internal/message"
	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

const channelBufferSize = 100

// Pipeline wires consumer, parser and handler together:
// Kafka spread stats -> parse -> estimator -> config fragments.
type Pipeline struct {
	cfg       *config.Config
	consumer  *Consumer
	handler   *Handler
	publisher *Publisher
	logger    *zap.Logger

	rawMessages    chan []byte
	parsedMessages chan message.SpreadStat
}

// New creates the pipeline. history seeds the estimator window.
func New(cfg *config.Config, history []message.SpreadStat, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")

	rawMessages := make(chan []byte, channelBufferSize)
	parsedMessages := make(chan message.SpreadStat, channelBufferSize)

	consumer, err := NewConsumer(cfg.Kafka, rawMessages, logger.Named("consumer"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
	}

	publisher, err := NewPublisher(cfg.Kafka, logger.Named("publisher"))
	if err != nil {
		_ = consumer.reader.Close()
		return nil, fmt.Errorf("%w: %w", ErrPublisherCreationFailed, err)
	}

	estimator := spreadstat.New(history, logger.Named(cfg.Handler.Name).Sugar(),
		spreadstat.WithWindow(cfg.Handler.Window),
		spreadstat.WithPrecision(cfg.Handler.Precision),
		spreadstat.WithSigmaMultiplier(cfg.Handler.SigmaMultiplier),
	)
	handler := NewHandler(cfg.Handler.Name, estimator, parsedMessages, publisher, logger.Named("handler"))

	initLogger.Info("Pipeline instance created successfully",
		zap.String("handler", cfg.Handler.Name),
		zap.Duration("window", cfg.Handler.Window),
		zap.Int("history_size", len(history)),
	)

	return &Pipeline{
		cfg:            cfg,
		consumer:       consumer,
		handler:        handler,
		publisher:      publisher,
		logger:         logger.Named("pipeline"),
		rawMessages:    rawMessages,
		parsedMessages: parsedMessages,
	}, nil
}

// Run starts all components and blocks until ctx is cancelled or one of
// them fails. A cancellation is not reported as an error.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sugar := p.logger.Sugar()
	var wg sync.WaitGroup
	pipelineErr := make(chan error, 4)

	sugar.Info("Pipeline Run: Starting components...")
	wg.Add(3)
	go p.runConsumer(ctx, &wg, pipelineErr)
	go p.runParser(ctx, &wg)
	go p.runHandler(ctx, &wg, pipelineErr)

	if p.cfg != nil && p.cfg.Metrics.ListenAddr != "" {
		wg.Add(1)
		go p.runMetrics(ctx, &wg, pipelineErr)
	}

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
		cancel()
	}

	wg.Wait()
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			sugar.Warnw("Failed to close publisher", zap.Error(err))
		}
	}
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

func (p *Pipeline) runConsumer(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer close(p.rawMessages)

	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Consumer component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	}
}

// runParser decodes raw records. Malformed records are dropped.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(p.parsedMessages)

	parserLogger := p.logger.Named("parser").Sugar()
	for {
		select {
		case raw, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}

			stat, err := message.ParseSpreadStat(raw)
			if err != nil {
				parseErrorsTotal.Inc()
				parserLogger.Warnw("Rejected spread stat record", zap.Error(err), zap.Int("bytes", len(raw)))
				continue
			}

			select {
			case p.parsedMessages <- stat:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) runHandler(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	if err := p.handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Handler component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrHandlerRunFailed, err)
	}
}

func (p *Pipeline) runMetrics(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	if err := ServeMetrics(ctx, p.cfg.Metrics.ListenAddr, p.logger.Named("metrics")); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Metrics server exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrMetricsServerFailed, err)
	}
}
