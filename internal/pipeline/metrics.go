package pipeline

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

const (
	resultConfig   = "config"
	resultNoUpdate = "no_update"
)

// Prometheus Metrics Definition
var (
	windowSampleSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spreadstat_window_sample_size",
			Help: "Number of spread stats in the handler window after the last update.",
		},
		[]string{"handler"},
	)
	windowMean = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spreadstat_window_mean",
			Help: "Mean best-case profit percent against notional over the window.",
		},
		[]string{"handler"},
	)
	windowStdDev = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spreadstat_window_stddev",
			Help: "Standard deviation used for the threshold (0 while undefined).",
		},
		[]string{"handler"},
	)
	minTargetProfitPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spreadstat_min_target_profit_percent",
			Help: "Last minTargetProfitPercent emitted by the handler.",
		},
		[]string{"handler"},
	)
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadstat_updates_total",
			Help: "Handled spread stats by outcome (config, no_update).",
		},
		[]string{"handler", "result"},
	)
	publishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadstat_publish_errors_total",
			Help: "Config fragments that could not be published.",
		},
		[]string{"handler"},
	)
	parseErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spreadstat_parse_errors_total",
			Help: "Spread stat records rejected by the parser.",
		},
	)
)

// observeStats mirrors the estimator state into the window gauges.
func observeStats(handler string, stats spreadstat.Stats) {
	windowSampleSize.WithLabelValues(handler).Set(float64(stats.SampleSize))
	windowMean.WithLabelValues(handler).Set(stats.Mean)
	if math.IsNaN(stats.StdDev) {
		windowStdDev.WithLabelValues(handler).Set(0)
	} else {
		windowStdDev.WithLabelValues(handler).Set(stats.StdDev)
	}
}

// ServeMetrics exposes the default registry on addr until ctx is done.
func ServeMetrics(ctx context.Context, addr string, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveMetrics(ctx, ln, logger)
}

// serveMetrics serves /metrics on ln and shuts down when ctx is done.
func serveMetrics(ctx context.Context, ln net.Listener, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
		return ctx.Err()
	}
}
