package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/engine"
)

// Controller 调度循环的状态读取与命令投递
type Controller interface {
	Status() engine.Status
	Submit(c engine.Command) error
}

// History 配对历史查询
type History interface {
	Recent(ctx context.Context, n int) ([]engine.Report, error)
}

// SLACHandler SLAC 状态与控制 API
type SLACHandler struct {
	ctrl    Controller
	history History
	logger  *zap.Logger
}

// NewSLACHandler history 可为 nil（未启用 Redis）
func NewSLACHandler(ctrl Controller, history History, logger *zap.Logger) *SLACHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLACHandler{ctrl: ctrl, history: history, logger: logger}
}

// GetStatus 当前会话状态快照
// GET /api/v1/slac/status
func (h *SLACHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Status())
}

// ListSessions 最近完成的配对
// GET /api/v1/slac/sessions?limit=20
func (h *SLACHandler) ListSessions(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session history disabled"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if vv, e := strconv.Atoi(v); e == nil && vv > 0 {
			limit = vv
		}
	}
	list, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Warn("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

// Restart 整体重启：复位调制解调器，重新生成密钥
// POST /api/v1/slac/restart
func (h *SLACHandler) Restart(c *gin.Context) {
	h.submit(c, engine.CmdRestart)
}

// FactoryDefaults 让调制解调器恢复出厂设置
// POST /api/v1/modem/factory-defaults
func (h *SLACHandler) FactoryDefaults(c *gin.Context) {
	h.submit(c, engine.CmdFactoryDefaults)
}

func (h *SLACHandler) submit(c *gin.Context, cmd engine.Command) {
	if err := h.ctrl.Submit(cmd); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, engine.ErrBusy) {
			code = http.StatusTooManyRequests
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("command accepted", zap.String("command", cmd.String()), zap.String("remote_addr", c.ClientIP()))
	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "command": cmd.String()})
}
