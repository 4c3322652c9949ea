package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	namespace = "layup"

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of scheduling runs by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single engine invocation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"mode"},
	)

	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "orders_total",
			Help:      "Orders processed by the engine, by result and reason",
		},
		[]string{"mode", "result", "reason"},
	)

	adjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lop",
			Name:      "adjustments_total",
			Help:      "Secondary adjustments evaluated, by override reason",
		},
		[]string{"reason"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status class",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveRun 记录一次引擎调用
func ObserveRun(mode, status string, elapsed time.Duration) {
	runsTotal.WithLabelValues(mode, status).Inc()
	runDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// AddScheduled 记录已排产订单数
func AddScheduled(mode string, n int) {
	ordersTotal.WithLabelValues(mode, "scheduled", "").Add(float64(n))
}

// AddUnscheduled 按原因记录未排产订单数
func AddUnscheduled(mode, reason string, n int) {
	ordersTotal.WithLabelValues(mode, "unscheduled", reason).Add(float64(n))
}

// IncAdjustment 记录一次 LOP 调整评估
func IncAdjustment(reason string) {
	adjustmentsTotal.WithLabelValues(reason).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
