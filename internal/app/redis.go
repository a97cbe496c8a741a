package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/health"
	redisstorage "github.com/devdems/evse-plc/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, session history off")
		return nil, nil
	}

	client, err := redisstorage.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("history_size", cfg.HistorySize))

	return client, nil
}

// NewSessionRecorder 配对历史记录器
func NewSessionRecorder(client *redisstorage.Client, cfg cfgpkg.RedisConfig, logger *zap.Logger) *redisstorage.SessionRecorder {
	return redisstorage.NewSessionRecorder(client, cfg.HistorySize, cfg.SessionTTL, logger)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
