package health

import (
	"context"
	"time"

	"github.com/devdems/evse-plc/internal/engine"
	"github.com/devdems/evse-plc/internal/slac"
)

// StatusSource 提供调度循环快照
type StatusSource interface {
	Status() engine.Status
}

// ModemChecker PLC 调制解调器健康检查器
type ModemChecker struct {
	src        StatusSource
	staleAfter time.Duration
	now        func() time.Time
}

// NewModemChecker staleAfter 内没有新快照视为调度循环停止
func NewModemChecker(src StatusSource, staleAfter time.Duration) *ModemChecker {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Second
	}
	return &ModemChecker{src: src, staleAfter: staleAfter, now: time.Now}
}

// Name 返回检查器名称
func (c *ModemChecker) Name() string {
	return "modem"
}

// Check 执行健康检查
func (c *ModemChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	st := c.src.Status()

	details := map[string]interface{}{
		"state":            st.State,
		"key_status":       st.KeyStatus,
		"framing_errors":   st.FramingErrors,
		"modem_resets":     st.ModemResets,
		"transport_errors": st.TransportErrors,
		"sessions":         st.SessionsCompleted,
	}
	if st.LocalModemMAC != "" {
		details["local_modem_mac"] = st.LocalModemMAC
	}
	if st.LastError != "" {
		details["last_error"] = st.LastError
	}

	status := StatusHealthy
	message := "ok"

	switch {
	case st.UpdatedAt.IsZero() || c.now().Sub(st.UpdatedAt) > c.staleAfter:
		status = StatusUnhealthy
		message = "engine not ticking"
	case st.Key == slac.KeyFailed:
		// 密钥配置失败后不会自动重试，需要运维重启
		status = StatusDegraded
		message = "modem key configuration failed"
	case !st.ModemReady():
		status = StatusUnhealthy
		message = "modem not initialized"
	}

	return resultSince(start, status, message, details)
}
