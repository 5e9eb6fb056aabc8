package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/regexcol/internal/transform"
)

const metricsNamespace = "regexcol"

// Metrics holds the Prometheus collectors for transform runs.
type Metrics struct {
	transforms   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	uploadBytes  prometheus.Histogram
	rows         prometheus.Counter
	cellsChanged prometheus.Counter
	presetsUsed  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transforms_total",
			Help:      "Transform requests by outcome (ok or the failing error kind).",
		}, []string{"outcome", "format"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "transform_duration_seconds",
			Help:      "Time spent parsing, rewriting and serializing one upload.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"format"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes",
			Help:      "Size of uploaded files.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_processed_total",
			Help:      "Rows passed through successful transforms.",
		}),
		cellsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cells_changed_total",
			Help:      "Cells whose text changed after substitution.",
		}),
		presetsUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "presets_used_total",
			Help:      "Transforms whose pattern came from a description preset.",
		}, []string{"preset"}),
	}

	if reg != nil {
		reg.MustRegister(m.transforms, m.duration, m.uploadBytes, m.rows, m.cellsChanged, m.presetsUsed)
	}
	return m
}

// RegisterLimiter exposes limiter occupancy as gauges.
func (m *Metrics) RegisterLimiter(reg prometheus.Registerer, l *Limiter) {
	if reg == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "transforms_active",
			Help:      "Transforms currently holding a slot.",
		}, func() float64 { return float64(l.ActiveCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "transforms_waiting",
			Help:      "Requests waiting for a transform slot.",
		}, func() float64 { return float64(l.Status().Waiting) }),
	)
}

func (m *Metrics) observeUpload(size int) {
	m.uploadBytes.Observe(float64(size))
}

func (m *Metrics) observeSuccess(format string, took time.Duration, rows, changed int) {
	m.transforms.WithLabelValues("ok", format).Inc()
	m.duration.WithLabelValues(format).Observe(took.Seconds())
	m.rows.Add(float64(rows))
	m.cellsChanged.Add(float64(changed))
}

func (m *Metrics) observeFailure(format string, err error) {
	m.transforms.WithLabelValues(outcomeLabel(err), format).Inc()
}

func (m *Metrics) observePreset(name string) {
	m.presetsUsed.WithLabelValues(name).Inc()
}

func outcomeLabel(err error) string {
	if kind := transform.KindOf(err); kind != transform.KindUnknown {
		return kind.String()
	}
	return MapError(err).Code
}
