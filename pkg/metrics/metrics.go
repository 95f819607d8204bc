package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerMetrics records ledger activity. A nil *LedgerMetrics is a no-op.
type LedgerMetrics struct {
	expensesLogged      *prometheus.CounterVec
	splitRejections     *prometheus.CounterVec
	settlementsRecorded prometheus.Counter
	planPayments        prometheus.Histogram
	balanceDuration     prometheus.Histogram
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	expensesLogged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_expenses_logged_total",
		Help: "Expenses accepted, by scope kind.",
	}, []string{"scope"})
	splitRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_split_rejections_total",
		Help: "Split instructions rejected by the parser, by error code.",
	}, []string{"code"})
	settlementsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_settlements_recorded_total",
		Help: "Settlements appended to the ledger.",
	})
	planPayments := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_plan_payments",
		Help:    "Number of payments in each simplified settlement plan.",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})
	balanceDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_balance_compute_seconds",
		Help:    "Time spent loading and aggregating a balance snapshot.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(expensesLogged, splitRejections, settlementsRecorded, planPayments, balanceDuration)
	return &LedgerMetrics{
		expensesLogged:      expensesLogged,
		splitRejections:     splitRejections,
		settlementsRecorded: settlementsRecorded,
		planPayments:        planPayments,
		balanceDuration:     balanceDuration,
	}
}

// IncExpenseLogged counts an accepted expense. scope is "group" or "personal".
func (m *LedgerMetrics) IncExpenseLogged(scope string) {
	if m == nil || m.expensesLogged == nil {
		return
	}
	m.expensesLogged.WithLabelValues(normalizeLabel(scope)).Inc()
}

// IncSplitRejected counts a parser rejection by its error code.
func (m *LedgerMetrics) IncSplitRejected(code string) {
	if m == nil || m.splitRejections == nil {
		return
	}
	m.splitRejections.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *LedgerMetrics) IncSettlementRecorded() {
	if m == nil || m.settlementsRecorded == nil {
		return
	}
	m.settlementsRecorded.Inc()
}

func (m *LedgerMetrics) ObservePlanSize(payments int) {
	if m == nil || m.planPayments == nil {
		return
	}
	m.planPayments.Observe(float64(payments))
}

func (m *LedgerMetrics) ObserveBalanceDuration(d time.Duration) {
	if m == nil || m.balanceDuration == nil {
		return
	}
	m.balanceDuration.Observe(d.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
