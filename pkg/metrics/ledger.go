package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados posibles de una operación del libro.
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultLocked     = "locked"
	ResultNotFound   = "not_found"
	ResultError      = "error"
)

// LedgerMetrics agrupa las métricas de operaciones de inventario y de la reconstrucción.
// Todos los métodos aceptan un receptor nil (métricas deshabilitadas).
type LedgerMetrics struct {
	registry       *prometheus.Registry
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	rebuildMoves   prometheus.Gauge
	rebuildSuccess prometheus.Gauge
}

// NewLedgerMetrics registra las métricas en un registry propio.
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetricsWith(reg)
	m.registry = reg
	return m
}

// NewLedgerMetricsWith registra las métricas en el registerer dado.
func NewLedgerMetricsWith(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Operaciones sobre movimientos de inventario por resultado.",
	}, []string{"op", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duración de las operaciones del libro en segundos.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	rebuildMoves := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_rebuild_last_movements",
		Help: "Movimientos reproducidos en la última reconstrucción exitosa.",
	})
	rebuildSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_rebuild_last_success_timestamp_seconds",
		Help: "Marca de tiempo Unix de la última reconstrucción exitosa.",
	})
	reg.MustRegister(operations, duration, rebuildMoves, rebuildSuccess)
	return &LedgerMetrics{
		operations:     operations,
		duration:       duration,
		rebuildMoves:   rebuildMoves,
		rebuildSuccess: rebuildSuccess,
	}
}

// Observe registra una operación terminada con su resultado y duración.
func (m *LedgerMetrics) Observe(op, result string, d time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	op = normalizeLabel(op)
	m.operations.WithLabelValues(op, normalizeLabel(result)).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// RebuildSucceeded actualiza los gauges de la última reconstrucción.
func (m *LedgerMetrics) RebuildSucceeded(movements int, at time.Time) {
	if m == nil || m.rebuildMoves == nil {
		return
	}
	m.rebuildMoves.Set(float64(movements))
	m.rebuildSuccess.Set(float64(at.Unix()))
}

// Handler expone el registry propio para /metrics.
func (m *LedgerMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
