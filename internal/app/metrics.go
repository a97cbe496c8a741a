package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devdems/evse-plc/internal/callback"
	"github.com/devdems/evse-plc/internal/metrics"
)

// NewMetrics 初始化注册表、调度循环指标与回调指标
func NewMetrics() (*prometheus.Registry, *metrics.AppMetrics, *callback.Metrics) {
	reg := metrics.NewRegistry()
	return reg, metrics.NewAppMetrics(reg), callback.NewMetrics(reg)
}
