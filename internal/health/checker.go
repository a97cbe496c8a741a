package health

import (
	"context"
	"net/http"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 可以配对，但附加功能（历史、密钥）异常
	StatusUnhealthy Status = "unhealthy" // 调度循环停转或芯片未就绪，无法配对
)

func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	}
	return 2
}

// Worse 两个状态中较差的一个
func Worse(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// HTTPCode degraded 仍返回 200
func (s Status) HTTPCode() int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// CheckResult 单个检查器的结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

func resultSince(start time.Time, status Status, message string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: status, Message: message, Details: details, Latency: time.Since(start)}
}

// Checker 检查器；Check 必须遵守 ctx 超时
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}
