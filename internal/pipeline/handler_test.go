package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func stat(ts time.Time, profit float64) message.SpreadStat {
	return message.SpreadStat{
		Timestamp: ts,
		BestCase:  message.SpreadAnalysisResult{ProfitPercentAgainstNotional: profit},
	}
}

func fixedClock(t time.Time) spreadstat.Option {
	return spreadstat.WithClock(func() time.Time { return t })
}

func TestHandlerPublishesFragments(t *testing.T) {
	const name = "handler-publishes"
	input := make(chan message.SpreadStat, 4)
	sink := newFakeSink()
	est := spreadstat.New(nil, nil, fixedClock(base))
	h := NewHandler(name, est, input, sink, zap.NewNop())

	noUpdateBefore := testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultNoUpdate))
	configBefore := testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultConfig))

	input <- stat(base, 0)
	input <- stat(base, 2)
	close(input)

	require.NoError(t, h.Run(context.Background()))

	require.Len(t, sink.published, 1)
	got := <-sink.published
	assert.Equal(t, name, got.handler)
	assert.Equal(t, 5.0, got.fragment.MinTargetProfitPercent)

	assert.Equal(t, 1.0, testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultNoUpdate))-noUpdateBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultConfig))-configBefore)
	assert.Equal(t, 5.0, testutil.ToFloat64(minTargetProfitPercent.WithLabelValues(name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(windowSampleSize.WithLabelValues(name)))
	assert.Equal(t, 1.0, testutil.ToFloat64(windowMean.WithLabelValues(name)))
	assert.Equal(t, 2.0, testutil.ToFloat64(windowStdDev.WithLabelValues(name)))
}

func TestHandlerSingleSampleKeepsStdDevGaugeAtZero(t *testing.T) {
	const name = "handler-single"
	input := make(chan message.SpreadStat, 1)
	sink := newFakeSink()
	h := NewHandler(name, spreadstat.New(nil, nil, fixedClock(base)), input, sink, zap.NewNop())

	input <- stat(base, 0.7)
	close(input)

	require.NoError(t, h.Run(context.Background()))
	assert.Empty(t, sink.published)
	assert.Equal(t, 0.0, testutil.ToFloat64(windowStdDev.WithLabelValues(name)))
	assert.Equal(t, 1.0, testutil.ToFloat64(windowSampleSize.WithLabelValues(name)))
}

func TestHandlerSurvivesPublishErrors(t *testing.T) {
	const name = "handler-publish-error"
	input := make(chan message.SpreadStat, 3)
	sink := newFakeSink()
	sink.err = errors.New("broker unavailable")
	h := NewHandler(name, spreadstat.New(nil, nil, fixedClock(base)), input, sink, zap.NewNop())

	errorsBefore := testutil.ToFloat64(publishErrorsTotal.WithLabelValues(name))
	configBefore := testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultConfig))

	input <- stat(base, 1)
	input <- stat(base, 2)
	input <- stat(base, 3)
	close(input)

	require.NoError(t, h.Run(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(publishErrorsTotal.WithLabelValues(name))-errorsBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(updatesTotal.WithLabelValues(name, resultConfig))-configBefore)
}

func TestHandlerStopsOnCancel(t *testing.T) {
	input := make(chan message.SpreadStat)
	h := NewHandler("handler-cancel", spreadstat.New(nil, nil), input, newFakeSink(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)
}
