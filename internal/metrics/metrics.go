// Package metrics holds the Prometheus collectors for alert cycles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	cycles        *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	ledgerSize    prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchalert_cycles_total",
				Help: "Alert evaluation cycles by outcome",
			},
			[]string{"result"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchalert_deliveries_total",
				Help: "Notification delivery attempts by outcome",
			},
			[]string{"result"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "matchalert_cycle_duration_seconds",
				Help:    "Duration of one alert evaluation cycle",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		ledgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "matchalert_ledger_size",
				Help: "Fixtures acknowledged in the sent-alert ledger",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "matchalert_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that completed without error",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.cycles, m.deliveries, m.cycleDuration, m.ledgerSize, m.lastSuccess)
	}
	return m
}

func (m *Metrics) ObserveCycle(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
	if err != nil {
		m.cycles.WithLabelValues(ResultError).Inc()
		return
	}
	m.cycles.WithLabelValues(ResultOK).Inc()
	m.lastSuccess.SetToCurrentTime()
}

func (m *Metrics) Delivery(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.deliveries.WithLabelValues(ResultError).Inc()
		return
	}
	m.deliveries.WithLabelValues(ResultOK).Inc()
}

func (m *Metrics) LedgerSize(n int) {
	if m == nil {
		return
	}
	m.ledgerSize.Set(float64(n))
}
