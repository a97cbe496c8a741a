package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devdems/evse-plc/internal/health"
)

// NewHealthAggregator 以调制解调器检查器初始化；快照超过 50 个节拍（至少 1s）未更新视为停转
func NewHealthAggregator(src health.StatusSource, tick time.Duration) *health.Aggregator {
	stale := 50 * tick
	if stale < time.Second {
		stale = time.Second
	}
	return health.NewAggregator(health.NewModemChecker(src, stale))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
