package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/api/middleware"
)

// RegisterSLACRoutes 注册 SLAC 查询与控制路由
func RegisterSLACRoutes(
	r *gin.Engine,
	ctrl Controller,
	history History,
	authCfg middleware.AuthConfig,
	logger *zap.Logger,
) {
	if r == nil || ctrl == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewSLACHandler(ctrl, history, logger)

	v1 := r.Group("/api/v1")

	// 查询（无需认证）
	v1.GET("/slac/status", handler.GetStatus)
	v1.GET("/slac/sessions", handler.ListSessions)

	// 控制（需要认证）
	ctl := v1.Group("")
	if authCfg.Enabled {
		ctl.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for bench use!")
	}
	ctl.POST("/slac/restart", handler.Restart)
	ctl.POST("/modem/factory-defaults", handler.FactoryDefaults)

	logger.Info("slac routes registered", zap.Int("endpoints", 4))
}
