package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/devdems/evse-plc/internal/storage/redis"
)

// RedisChecker 配对历史存储健康检查器。历史只是附加功能，
// 因此 Redis 不可用只记为 degraded，不影响就绪。
type RedisChecker struct {
	client *redisstorage.Client
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check ping 并读取历史索引长度与连接池统计
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	p, err := c.client.Probe(ctx)
	if err != nil {
		return resultSince(start, StatusDegraded, fmt.Sprintf("ping failed: %v", err), nil)
	}

	details := map[string]interface{}{
		"ping_ms":     p.Latency.Milliseconds(),
		"total_conns": p.Pool.TotalConns,
		"idle_conns":  p.Pool.IdleConns,
		"timeouts":    p.Pool.Timeouts,
	}
	if p.SessionsIndexed >= 0 {
		details["sessions_indexed"] = p.SessionsIndexed
	}
	status, message := StatusHealthy, "ok"
	if p.Pool.Timeouts > 0 && p.Pool.Timeouts >= p.Pool.Hits {
		status, message = StatusDegraded, "pool timeouts"
	}
	return resultSince(start, status, message, details)
}
