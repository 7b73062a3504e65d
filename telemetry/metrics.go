// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	RecordsConsumed prometheus.Counter
	RecordsSkipped  prometheus.Counter
	MalformedLines  prometheus.Counter
	CurrencyLookups *prometheus.CounterVec
	EntriesAppended *prometheus.CounterVec

	// Gauges
	ActiveSessions prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		RecordsConsumed = promauto.NewCounter(prometheus.CounterOpts{Name: "replay_records_consumed_total", Help: "Number of replay records consumed into the timeline"})
		RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "replay_records_skipped_total", Help: "Number of replay records not consumed (duplicates, stale updates, unrecognized shapes)"})
		MalformedLines = promauto.NewCounter(prometheus.CounterOpts{Name: "replay_malformed_lines_total", Help: "Number of input lines that failed to decode"})
		EntriesAppended = promauto.NewCounterVec(prometheus.CounterOpts{Name: "replay_timeline_entries_total", Help: "Timeline entries appended, by kind"}, []string{"kind"})
		CurrencyLookups = promauto.NewCounterVec(prometheus.CounterOpts{Name: "replay_currency_lookups_total", Help: "Currency rate lookups, by outcome"}, []string{"outcome"})
		ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Name: "replay_active_sessions", Help: "Current number of in-memory replay sessions"})
	})
}

// CountRecord increments the consumed or skipped counter.
func CountRecord(consumed bool) {
	if RecordsConsumed == nil {
		return
	}
	if consumed {
		RecordsConsumed.Inc()
	} else {
		RecordsSkipped.Inc()
	}
}

// CountMalformed increments the malformed-line counter.
func CountMalformed() {
	if MalformedLines != nil {
		MalformedLines.Inc()
	}
}

// CountEntry records one appended timeline entry of the given kind.
func CountEntry(kind string) {
	if EntriesAppended != nil {
		EntriesAppended.WithLabelValues(kind).Inc()
	}
}

// CountCurrencyLookup records a lookup outcome ("ok" or "error").
func CountCurrencyLookup(ok bool) {
	if CurrencyLookups == nil {
		return
	}
	if ok {
		CurrencyLookups.WithLabelValues("ok").Inc()
	} else {
		CurrencyLookups.WithLabelValues("error").Inc()
	}
}

// SetActiveSessions records the current session count.
func SetActiveSessions(n int) {
	if ActiveSessions != nil {
		ActiveSessions.Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
