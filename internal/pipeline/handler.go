package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

// Handler feeds parsed spread stats into the estimator one at a time and
// forwards the resulting configuration fragments to the sink. It is the
// only goroutine touching the estimator.
type Handler struct {
	name      string
	estimator *spreadstat.Estimator
	input     <-chan message.SpreadStat
	sink      ConfigSink
	logger    *zap.Logger
}

// NewHandler creates a Handler reading from input and publishing to sink.
func NewHandler(name string, estimator *spreadstat.Estimator, input <-chan message.SpreadStat, sink ConfigSink, logger *zap.Logger) *Handler {
	logger.Info("Handler initialized",
		zap.String("handler", name),
		zap.Int("history_size", estimator.SampleSize()),
	)
	return &Handler{
		name:      name,
		estimator: estimator,
		input:     input,
		sink:      sink,
		logger:    logger,
	}
}

// Run processes spread stats until the input closes or ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	sugar := h.logger.Sugar()
	sugar.Info("Starting handler loop...")
	defer sugar.Info("Handler loop stopped.")

	for {
		select {
		case stat, ok := <-h.input:
			if !ok {
				sugar.Info("Handler input channel closed.")
				return nil
			}
			if err := h.process(ctx, stat); err != nil {
				return err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Handler) process(ctx context.Context, stat message.SpreadStat) error {
	update, err := h.estimator.Handle(ctx, stat)
	if err != nil {
		return err
	}
	observeStats(h.name, h.estimator.Stats())

	fragment, ok := update.Fragment()
	if !ok {
		updatesTotal.WithLabelValues(h.name, resultNoUpdate).Inc()
		return nil
	}
	updatesTotal.WithLabelValues(h.name, resultConfig).Inc()
	minTargetProfitPercent.WithLabelValues(h.name).Set(fragment.MinTargetProfitPercent)

	// Publish failures do not stop the handler.
	if err := h.sink.Publish(ctx, h.name, fragment); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		publishErrorsTotal.WithLabelValues(h.name).Inc()
		h.logger.Error("Failed to publish config fragment",
			zap.String("handler", h.name),
			zap.Float64("min_target_profit_percent", fragment.MinTargetProfitPercent),
			zap.Error(err),
		)
	}
	return nil
}
