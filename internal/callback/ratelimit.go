package callback

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimiter 基于Token Bucket的回调限流器
type RateLimiter struct {
	limiter      *rate.Limiter
	ratePerSec   float64
	burst        int
	allowedCount atomic.Int64
	waitErrCount atomic.Int64
}

// NewRateLimiter 创建限流器
// ratePerSec: 每秒允许的回调数（<=0 时取 1）
// burst: 突发容量（<=0 时取 1）
func NewRateLimiter(ratePerSec float64, burst int) *RateLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

// Wait 阻塞直到获得令牌或 ctx 结束
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		l.waitErrCount.Add(1)
		return err
	}
	l.allowedCount.Add(1)
	return nil
}

// Stats 获取统计信息
func (l *RateLimiter) Stats() RateLimiterStats {
	return RateLimiterStats{
		RatePerSecond: l.ratePerSec,
		Burst:         l.burst,
		AllowedTotal:  l.allowedCount.Load(),
		AbortedTotal:  l.waitErrCount.Load(),
	}
}

// RateLimiterStats 限流器统计信息
type RateLimiterStats struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	AllowedTotal  int64   `json:"allowed_total"`
	AbortedTotal  int64   `json:"aborted_total"`
}
