package registry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the registry updates at the
// call sites that mutate tracker/buffer state, never by polling (per the
// direct-update style in featurebase's performancecounters.go).
type Metrics struct {
	minClock     *prometheus.GaugeVec
	pendingDepth *prometheus.GaugeVec
	opsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers the registry's collectors against
// reg. Pass prometheus.DefaultRegisterer for process-wide metrics, or a
// fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		minClock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paramserver",
			Name:      "min_clock",
			Help:      "Current min-clock of the table's progress tracker.",
		}, []string{"table"}),
		pendingDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paramserver",
			Name:      "pending_depth",
			Help:      "Number of Get requests currently buffered for the table.",
		}, []string{"table"}),
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paramserver",
			Name:      "ops_total",
			Help:      "Count of dispatched Messages by table and operation.",
		}, []string{"table", "op"}),
	}
	reg.MustRegister(m.minClock, m.pendingDepth, m.opsTotal)
	return m
}

func (m *Metrics) observe(table string, op string, minClock, pendingDepth int) {
	m.minClock.WithLabelValues(table).Set(float64(minClock))
	m.pendingDepth.WithLabelValues(table).Set(float64(pendingDepth))
	m.opsTotal.WithLabelValues(table, op).Inc()
}
