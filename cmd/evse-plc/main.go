package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/app/bootstrap"
	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/logging"
)

func main() {
	path := flag.String("config", "", "config file (default: $EVSE_CONFIG or configs/example.yaml)")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*path)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		zap.L().Fatal("evse plc controller exited", zap.Error(err))
	}
}
