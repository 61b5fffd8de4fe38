package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 看板计算耗时
type Metrics struct {
	duration *prometheus.HistogramVec
	empty    *prometheus.CounterVec
}

// NewMetrics 创建并注册指标；reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "employment",
			Subsystem: "dashboard",
			Name:      "compute_seconds",
			Help:      "Time spent loading and aggregating a dashboard view.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		empty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "employment",
			Subsystem: "dashboard",
			Name:      "empty_results_total",
			Help:      "Number of dashboard views that matched no records.",
		}, []string{"view"}),
	}
	if reg != nil {
		reg.MustRegister(m.duration, m.empty)
	}
	return m
}

func (m *Metrics) observe(view string, start time.Time, empty bool) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	if empty {
		m.empty.WithLabelValues(view).Inc()
	}
}
