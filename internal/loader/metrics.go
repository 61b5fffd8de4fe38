package loader

import "github.com/prometheus/client_golang/prometheus"

// Metrics 加载阶段的可观测指标
type Metrics struct {
	coercions *prometheus.CounterVec
	loadFails prometheus.Counter
}

// NewMetrics 创建并注册指标；reg 为 nil 时不注册（测试用）
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		coercions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "employment",
			Subsystem: "loader",
			Name:      "coercions_total",
			Help:      "Number of malformed record fields coerced to a safe default.",
		}, []string{"field"}),
		loadFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "employment",
			Subsystem: "loader",
			Name:      "load_failures_total",
			Help:      "Number of snapshot loads that failed because the store was unreachable.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.coercions, m.loadFails)
	}
	return m
}

func (m *Metrics) observeCoercions(c Coercions) {
	if m == nil {
		return
	}
	for field, n := range c {
		m.coercions.WithLabelValues(field).Add(float64(n))
	}
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.loadFails.Inc()
}
