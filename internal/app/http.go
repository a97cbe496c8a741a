package app

import (
	"net/http"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器；metrics.enable=false 时不暴露指标路由
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool) *httpserver.Server {
	if !cfg.Metrics.Enable {
		metricsHandler = nil
	}
	return httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn)
}
