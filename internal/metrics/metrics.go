package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	FramesReceived    *prometheus.CounterVec // labels: mmtype
	FramesSent        *prometheus.CounterVec // labels: mmtype
	FramesDropped     *prometheus.CounterVec // labels: reason=ethertype|decode
	FramingErrors     prometheus.Counter
	ModemResets       prometheus.Counter
	TransportErrors   *prometheus.CounterVec // labels: op
	StateGauge        prometheus.Gauge       // 当前状态序号
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	DiscoveryRetries  prometheus.Counter
	IPv6Frames        *prometheus.CounterVec // labels: kind
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plc_frames_received_total",
			Help: "HomePlug AV management frames received by MMTYPE.",
		}, []string{"mmtype"}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plc_frames_sent_total",
			Help: "HomePlug AV management frames sent by MMTYPE.",
		}, []string{"mmtype"}),
		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plc_frames_dropped_total",
			Help: "Inbound frames dropped before reaching the state machine.",
		}, []string{"reason"}),
		FramingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qcaspi_framing_errors_total",
			Help: "Corrupted receive bursts.",
		}),
		ModemResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qcaspi_modem_resets_total",
			Help: "Modem soft resets issued.",
		}),
		TransportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qcaspi_transport_errors_total",
			Help: "SPI transaction failures by operation.",
		}, []string{"op"}),
		StateGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slac_state",
			Help: "Current SLAC state ordinal.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slac_sessions_started_total",
			Help: "SLAC_PARAM.REQ accepted.",
		}),
		SessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slac_sessions_completed_total",
			Help: "Private networks established and handed off.",
		}),
		DiscoveryRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slac_discovery_retries_total",
			Help: "Modem discovery rounds that found too few modems.",
		}),
		IPv6Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plc_ipv6_frames_total",
			Help: "IPv6 frames delivered to the upper layer by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.FramesReceived, m.FramesSent, m.FramesDropped, m.FramingErrors, m.ModemResets,
		m.TransportErrors, m.StateGauge, m.SessionsStarted, m.SessionsCompleted,
		m.DiscoveryRetries, m.IPv6Frames,
	)
	return m
}
