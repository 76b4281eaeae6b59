// Package metrics registers the Prometheus collectors of the liquidation service.
package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricPrefix = "liquidation_"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	previewTotal   *prometheus.CounterVec
	previewLatency *prometheus.HistogramVec
	executeTotal   *prometheus.CounterVec
	executeLatency *prometheus.HistogramVec
	exportTotal    *prometheus.CounterVec
	jornadasTotal  *prometheus.CounterVec
)

// Init registers collectors once. db may be nil (no connection pool gauges).
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		previewTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "preview_total",
				Help: "Total liquidation previews by result",
			},
			[]string{"result"},
		)
		previewLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "preview_latency_seconds",
				Help:    "Liquidation preview latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		executeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "execute_total",
				Help: "Total liquidation executions by result",
			},
			[]string{"result"},
		)
		executeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "execute_latency_seconds",
				Help:    "Liquidation execution latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total liquidation exports by format and result",
			},
			[]string{"format", "result"},
		)
		jornadasTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "jornadas_settled_total",
				Help: "Total jornadas committed by mode",
			},
			[]string{"mode"},
		)

		prometheus.MustRegister(
			previewTotal,
			previewLatency,
			executeTotal,
			executeLatency,
			exportTotal,
			jornadasTotal,
		)
		if db != nil {
			prometheus.MustRegister(collectors.NewDBStatsCollector(db, "liquidation"))
		}
	})
}

// ObservePreview records preview duration and result.
func ObservePreview(result string, duration time.Duration) {
	if previewTotal == nil {
		return
	}
	previewTotal.WithLabelValues(result).Inc()
	previewLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveExecute records execution duration and result.
func ObserveExecute(result string, duration time.Duration) {
	if executeTotal == nil {
		return
	}
	executeTotal.WithLabelValues(result).Inc()
	executeLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// AddJornadas counts committed jornadas.
func AddJornadas(mode string, n int64) {
	if jornadasTotal == nil || n <= 0 {
		return
	}
	jornadasTotal.WithLabelValues(mode).Add(float64(n))
}

// ObserveExport records an export.
func ObserveExport(format, result string) {
	if exportTotal == nil {
		return
	}
	exportTotal.WithLabelValues(format, result).Inc()
}
