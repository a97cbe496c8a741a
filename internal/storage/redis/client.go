package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
)

const clientName = "evse-plc"

// Client 配对历史使用的 Redis 连接
type Client struct {
	*redis.Client
}

// NewClient 建立连接并在 dialTimeout 内 ping 一次；未启用时报错
func NewClient(ctx context.Context, cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	wait := cfg.DialTimeout
	if wait <= 0 {
		wait = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Client{Client: rdb}, nil
}

// Close 允许 nil 接收者
func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Probe 一次健康探测的结果
type Probe struct {
	Latency         time.Duration
	SessionsIndexed int64 // -1 表示读取失败
	Pool            *redis.PoolStats
}

// Probe ping 后读取历史索引长度与连接池统计；ping 失败时返回错误
func (c *Client) Probe(ctx context.Context) (Probe, error) {
	start := time.Now()
	if err := c.Ping(ctx).Err(); err != nil {
		return Probe{Latency: time.Since(start)}, err
	}
	p := Probe{Latency: time.Since(start), SessionsIndexed: -1, Pool: c.PoolStats()}
	if n, err := c.LLen(ctx, SessionIndexKey).Result(); err == nil {
		p.SessionsIndexed = n
	}
	return p, nil
}
