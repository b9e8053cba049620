package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
	openAccounts      prometheus.Gauge
	authAttempts      *prometheus.CounterVec
}

// LedgerSnapshot is a JSON-friendly readback of the counters, served by
// GET /v1/metrics/ledger for dashboards that do not scrape Prometheus.
type LedgerSnapshot struct {
	OperationsTotal   int64   `json:"operations_total"`
	OperationErrors   int64   `json:"operation_errors"`
	ErrorRate         float64 `json:"error_rate"`
	PersistenceErrors int64   `json:"persistence_errors"`
	AuthSuccesses     int64   `json:"auth_successes"`
	AuthFailures      int64   `json:"auth_failures"`
	Period            string  `json:"period"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Total ledger operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		persistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_persistence_errors_total",
				Help: "Total store write failures that forced a rollback.",
			},
			[]string{"op"},
		),
		openAccounts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_open_accounts",
				Help: "Number of accounts in the active mapping.",
			},
		),
		authAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_auth_attempts_total",
				Help: "PIN authentication attempts by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordOperationDuration records how long a ledger operation took.
func (m *Metrics) RecordOperationDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrOperation counts one ledger operation with its outcome
// ("success" or a failure reason).
func (m *Metrics) IncrOperation(operation, outcome string) {
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// IncrPersistenceError counts a store write failure.
func (m *Metrics) IncrPersistenceError(op string) {
	m.persistenceErrors.WithLabelValues(op).Inc()
}

// SetOpenAccounts updates the active-account gauge.
func (m *Metrics) SetOpenAccounts(n int) {
	m.openAccounts.Set(float64(n))
}

// IncrAuthAttempt counts a PIN check ("success" / "failure").
func (m *Metrics) IncrAuthAttempt(result string) {
	m.authAttempts.WithLabelValues(result).Inc()
}

// GetLedgerSnapshot gathers current counter values for the JSON
// metrics endpoint. Prometheus counters are cumulative.
func (m *Metrics) GetLedgerSnapshot() *LedgerSnapshot {
	mfs, err := m.Registry.Gather()
	if err != nil {
		return &LedgerSnapshot{Period: "all_time"}
	}

	var total, errors, persistence, authOK, authFail float64
	for _, mf := range mfs {
		switch mf.GetName() {
		case "ledger_operations_total":
			for _, metric := range mf.GetMetric() {
				v := counterValue(metric)
				total += v
				if labelValue(metric, "outcome") != "success" {
					errors += v
				}
			}
		case "ledger_persistence_errors_total":
			for _, metric := range mf.GetMetric() {
				persistence += counterValue(metric)
			}
		case "ledger_auth_attempts_total":
			for _, metric := range mf.GetMetric() {
				if labelValue(metric, "result") == "success" {
					authOK += counterValue(metric)
				} else {
					authFail += counterValue(metric)
				}
			}
		}
	}

	errorRate := float64(0)
	if total > 0 {
		errorRate = errors / total
	}

	return &LedgerSnapshot{
		OperationsTotal:   int64(total),
		OperationErrors:   int64(errors),
		ErrorRate:         errorRate,
		PersistenceErrors: int64(persistence),
		AuthSuccesses:     int64(authOK),
		AuthFailures:      int64(authFail),
		Period:            "all_time",
	}
}

func counterValue(m *dto.Metric) float64 {
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
