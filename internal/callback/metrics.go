package callback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 回调指标
type Metrics struct {
	// PushTotal result: success/failed/retry/skipped/circuit_open
	PushTotal *prometheus.CounterVec
	// PushDuration 单次 HTTP 请求耗时
	PushDuration prometheus.Histogram
	// EnqueueTotal result: success/dropped
	EnqueueTotal *prometheus.CounterVec
	// QueueSize 队列长度
	QueueSize prometheus.Gauge
}

// NewMetrics 在 reg 上注册回调指标；reg 为 nil 时不注册（测试用）
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PushTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callback_push_total",
			Help: "Total number of session completion callbacks by result.",
		}, []string{"result"}),
		PushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "callback_push_duration_seconds",
			Help:    "Duration of callback HTTP requests in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		EnqueueTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callback_enqueue_total",
			Help: "Total number of callbacks enqueued by result.",
		}, []string{"result"}),
		QueueSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "callback_queue_size",
			Help: "Current number of pending callbacks.",
		}),
	}
}
