// Package callback 配对完成后的 SOC 回调：有界队列 + 单 worker，GET 请求携带查询参数。
package callback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/engine"
)

// ErrNoURL 未配置回调地址
var ErrNoURL = errors.New("callback: url not configured")

// Config 回调配置
type Config struct {
	URL        string
	Timeout    time.Duration
	Retries    int
	Backoff    []time.Duration
	RatePerSec float64
	QueueSize  int

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Client SOC 回调客户端，实现 engine.Notifier
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *RateLimiter
	breaker *Breaker
	metrics *Metrics
	log     *zap.Logger
	queue   chan engine.Report
}

// New 创建回调客户端；httpClient 为 nil 时按 Timeout 创建
func New(cfg Config, httpClient *http.Client, m *Metrics, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond, time.Second, 2 * time.Second}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: NewRateLimiter(cfg.RatePerSec, 1),
		breaker: NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		metrics: m,
		log:     log,
		queue:   make(chan engine.Report, cfg.QueueSize),
	}
}

// Notify 非阻塞入队；队列满时丢弃并计数
func (c *Client) Notify(r engine.Report) {
	select {
	case c.queue <- r:
		c.metrics.EnqueueTotal.WithLabelValues("success").Inc()
		c.metrics.QueueSize.Set(float64(len(c.queue)))
	default:
		c.metrics.EnqueueTotal.WithLabelValues("dropped").Inc()
		c.log.Warn("callback queue full, dropping report", zap.String("session_id", r.SessionID))
	}
}

// Run worker 循环，直到 ctx 取消
func (c *Client) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.queue:
			c.metrics.QueueSize.Set(float64(len(c.queue)))
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			if err := c.breaker.Allow(); err != nil {
				c.metrics.PushTotal.WithLabelValues("circuit_open").Inc()
				c.log.Warn("callback endpoint failing, report dropped", zap.String("evccid", r.EVCCID))
				continue
			}
			code, err := c.Send(ctx, r)
			if !errors.Is(err, ErrNoURL) {
				c.breaker.Record(err)
			}
			switch {
			case errors.Is(err, ErrNoURL):
				c.log.Info("callback url not set, skipping soc callback", zap.String("evccid", r.EVCCID))
			case err != nil:
				c.log.Warn("soc callback failed", zap.String("evccid", r.EVCCID), zap.Int("code", code), zap.Error(err))
			default:
				c.log.Info("soc callback sent", zap.String("evccid", r.EVCCID), zap.Int("code", code))
			}
		}
	}
}

// BuildURL 在配置地址上追加 current_soc/full_soc/energy_capacity/energy_request/evccid
func BuildURL(base string, r engine.Report) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse callback url: %w", err)
	}
	q := u.Query()
	q.Set("current_soc", formatOne(r.CurrentSOC))
	q.Set("full_soc", formatOne(r.FullSOC))
	q.Set("energy_capacity", formatOne(r.EnergyCapacity))
	q.Set("energy_request", formatOne(r.EnergyRequest))
	q.Set("evccid", r.EVCCID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func formatOne(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Send 同步发送一次回调；对 5xx 与网络错误按 Backoff 重试
func (c *Client) Send(ctx context.Context, r engine.Report) (int, error) {
	if c.cfg.URL == "" {
		c.metrics.PushTotal.WithLabelValues("skipped").Inc()
		return 0, ErrNoURL
	}
	endpoint, err := BuildURL(c.cfg.URL, r)
	if err != nil {
		return 0, err
	}

	var code int
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		code, lastErr = c.do(ctx, endpoint)
		if lastErr == nil && code >= 200 && code < 300 {
			c.metrics.PushTotal.WithLabelValues("success").Inc()
			return code, nil
		}
		// 非2xx：仅对5xx重试
		if lastErr == nil && code < 500 {
			c.metrics.PushTotal.WithLabelValues("failed").Inc()
			return code, fmt.Errorf("http %d", code)
		}
		if attempt == c.cfg.Retries {
			break
		}
		c.metrics.PushTotal.WithLabelValues("retry").Inc()
		backoff := c.cfg.Backoff[min(attempt, len(c.cfg.Backoff)-1)]
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
	c.metrics.PushTotal.WithLabelValues("failed").Inc()
	if lastErr != nil {
		return 0, lastErr
	}
	return code, fmt.Errorf("http %d", code)
}

func (c *Client) do(ctx context.Context, endpoint string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.PushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Pending 队列中待发送的报告数
func (c *Client) Pending() int {
	return len(c.queue)
}

// BreakerState 熔断器当前状态
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// LimiterStats 限流统计
func (c *Client) LimiterStats() RateLimiterStats {
	return c.limiter.Stats()
}
