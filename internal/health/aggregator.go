package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout 单个检查器的超时
const DefaultCheckTimeout = 2 * time.Second

// Aggregator 健康检查聚合器；检查器并发执行，各自限时
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewAggregator 创建聚合器
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{checkers: checkers, timeout: DefaultCheckTimeout}
}

// SetTimeout 修改单个检查器超时
func (a *Aggregator) SetTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d > 0 {
		a.timeout = d
	}
}

// AddChecker 添加检查器
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

type namedResult struct {
	name   string
	result CheckResult
}

// CheckAll 执行所有健康检查；超时的检查器记为 unhealthy
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	timeout := a.timeout
	a.mu.RUnlock()

	ch := make(chan namedResult, len(checkers))
	for _, c := range checkers {
		go func(c Checker) {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			done := make(chan CheckResult, 1)
			go func() { done <- c.Check(cctx) }()
			select {
			case r := <-done:
				ch <- namedResult{c.Name(), r}
			case <-cctx.Done():
				ch <- namedResult{c.Name(), CheckResult{Status: StatusUnhealthy, Message: "check timed out", Latency: timeout}}
			}
		}(c)
	}

	results := make(map[string]CheckResult, len(checkers))
	for range checkers {
		r := <-ch
		results[r.name] = r.result
	}
	return results
}

// OverallStatus 计算总体健康状态
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return overall(a.CheckAll(ctx))
}

func overall(results map[string]CheckResult) Status {
	worst := StatusHealthy
	for _, r := range results {
		worst = Worse(worst, r.Status)
	}
	return worst
}

// Ready 降级仍算就绪，只有 unhealthy 不就绪
func (a *Aggregator) Ready(ctx context.Context) bool {
	return a.OverallStatus(ctx) != StatusUnhealthy
}

// Alive 进程能响应即存活；调度循环是否停转由 modem 检查器反映
func (a *Aggregator) Alive() bool {
	return true
}

// HealthReport 健康报告
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Report 执行全部检查并生成报告
func (a *Aggregator) Report(ctx context.Context, now time.Time) HealthReport {
	checks := a.CheckAll(ctx)
	return HealthReport{Status: overall(checks), Timestamp: now, Checks: checks}
}
