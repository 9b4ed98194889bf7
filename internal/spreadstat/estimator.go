package spreadstat

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sanspareilsmyn/spreadstat/internal/message"
)

const (
	// ComponentName is the logger name diagnostics are emitted under.
	ComponentName = "SimpleSpreadStatHandler"

	DefaultWindow                = 3 * time.Minute
	DefaultPrecision       int32 = 3
	DefaultSigmaMultiplier       = 2.0
)

// Logger is the diagnostic sink. *zap.SugaredLogger satisfies it.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
}

// Stats is a snapshot of the window statistics after the latest update.
type Stats struct {
	SampleSize int
	Mean       float64
	Variance   float64
	StdDev     float64 // NaN until an update has seen at least two samples
}

// Estimator keeps a time-bounded window of spread stats and derives
// minTargetProfitPercent as mean + k·σ over the best-case profit percent.
//
// Estimator is not safe for concurrent use. Handle appends, prunes and
// recomputes in separate steps, so callers must serialize calls.
type Estimator struct {
	window          []message.SpreadStat
	windowDuration  time.Duration
	precision       int32
	sigmaMultiplier float64
	now             func() time.Time
	log             Logger

	sampleSize int
	mean       float64
	variance   float64
	stdDev     float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithWindow sets the retention window. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(e *Estimator) {
		if d > 0 {
			e.windowDuration = d
		}
	}
}

// WithClock replaces time.Now as the pruning reference.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// WithPrecision sets the number of decimals the threshold is rounded to.
func WithPrecision(places int32) Option {
	return func(e *Estimator) { e.precision = places }
}

// WithSigmaMultiplier sets k in mean + k·σ.
func WithSigmaMultiplier(k float64) Option {
	return func(e *Estimator) { e.sigmaMultiplier = k }
}

// New builds an Estimator from a history snapshot. The snapshot is kept
// as-is; stale entries are only pruned by the first Handle call.
func New(history []message.SpreadStat, log Logger, opts ...Option) *Estimator {
	e := &Estimator{
		window:          append([]message.SpreadStat{}, history...),
		windowDuration:  DefaultWindow,
		precision:       DefaultPrecision,
		sigmaMultiplier: DefaultSigmaMultiplier,
		now:             time.Now,
		log:             log,
		stdDev:          math.NaN(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recompute()
	return e
}

// Handle adds stat to the window and returns the resulting configuration
// update. Windows with fewer than two samples, and any NaN or infinite
// threshold, produce NoUpdate. The only error is ctx already being done.
func (e *Estimator) Handle(ctx context.Context, stat message.SpreadStat) (Update, error) {
	if err := ctx.Err(); err != nil {
		return NoUpdate(), err
	}

	e.window = append(e.window, stat)
	e.prune(e.now().Add(-e.windowDuration))
	e.recompute()

	// The variance is already n-1 corrected; the extra n/(n-1) factor is
	// intentional and shifts the threshold for small windows.
	n := float64(e.sampleSize)
	e.stdDev = math.Sqrt(e.variance * n / (n - 1))
	threshold := Round(e.mean+e.sigmaMultiplier*e.stdDev, e.precision)

	if e.sampleSize < 2 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		e.stdDev = math.NaN()
		e.diagnose("no update", math.NaN())
		return NoUpdate(), nil
	}

	e.diagnose(fmt.Sprint(threshold), threshold)
	return NewUpdate(ConfigFragment{MinTargetProfitPercent: threshold}), nil
}

// prune drops every sample whose timestamp is not after cutoff, in place.
func (e *Estimator) prune(cutoff time.Time) {
	kept := e.window[:0]
	for _, s := range e.window {
		if s.Timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}
	clear(e.window[len(kept):])
	e.window = kept
}

func (e *Estimator) recompute() {
	values := make([]float64, len(e.window))
	for i, s := range e.window {
		values[i] = s.ProfitPercent()
	}
	e.sampleSize = len(values)
	if e.sampleSize == 0 {
		e.mean, e.variance = 0, 0
		return
	}
	e.mean = Mean(values)
	e.variance = SampleVariance(values)
}

func (e *Estimator) diagnose(result string, threshold float64) {
	if e.log == nil {
		return
	}
	mean := Round(e.mean, e.precision)
	stdDev := Round(e.stdDev, e.precision)
	e.log.Infow(
		fmt.Sprintf("μ: %v, σ: %v, n: %d => minTargetProfitPercent: %s", mean, stdDev, e.sampleSize, result),
		"mean", mean,
		"stddev", stdDev,
		"sample_size", e.sampleSize,
		"min_target_profit_percent", threshold,
	)
}

func (e *Estimator) SampleSize() int   { return e.sampleSize }
func (e *Estimator) Mean() float64     { return e.mean }
func (e *Estimator) Variance() float64 { return e.variance }

// Stats returns the statistics computed by the latest update.
func (e *Estimator) Stats() Stats {
	return Stats{
		SampleSize: e.sampleSize,
		Mean:       e.mean,
		Variance:   e.variance,
		StdDev:     e.stdDev,
	}
}

// Window returns a copy of the samples currently retained.
func (e *Estimator) Window() []message.SpreadStat {
	out := make([]message.SpreadStat, len(e.window))
	copy(out, e.window)
	return out
}
