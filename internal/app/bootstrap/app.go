package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/devdems/evse-plc/internal/api"
	"github.com/devdems/evse-plc/internal/app"
	"github.com/devdems/evse-plc/internal/callback"
	cfgpkg "github.com/devdems/evse-plc/internal/config"
	"github.com/devdems/evse-plc/internal/engine"
	"github.com/devdems/evse-plc/internal/health"
	"github.com/devdems/evse-plc/internal/ipv6"
	"github.com/devdems/evse-plc/internal/metrics"
)

// Run 统一启动流程：依赖就绪后再启动调度循环
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting evse plc controller",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Modem.Driver))

	// ========== 阶段1: 基础组件 ==========
	reg, appm, cbm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)
	ready := health.New()

	mcfg, err := app.MachineConfig(cfg)
	if err != nil {
		log.Error("local identity failed", zap.Error(err))
		return err
	}
	log.Info("local identity", zap.String("mac", mcfg.LocalMAC.String()), zap.Bool("derive_nid", mcfg.DeriveNID))

	// ========== 阶段2: 打开调制解调器 ==========
	dev, closer, err := app.OpenModem(cfg.Modem, log)
	if err != nil {
		log.Error("modem open failed", zap.Error(err))
		return err
	}
	defer closer.Close()

	// ========== 阶段3: 下游（回调、历史、IPv6） ==========
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cb := callback.New(callback.Config{
		URL:        cfg.Callback.URL,
		Timeout:    cfg.Callback.Timeout,
		Retries:    cfg.Callback.Retries,
		RatePerSec: cfg.Callback.RatePerSec,
		QueueSize:  cfg.Callback.QueueSize,

		BreakerThreshold: cfg.Callback.BreakerThreshold,
		BreakerCooldown:  cfg.Callback.BreakerCooldown,
	}, nil, cbm, log.Named("callback"))
	go cb.Run(ctx)
	notifiers := engine.Notifiers{cb}

	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	var history api.History
	if redisClient != nil {
		defer redisClient.Close()
		rec := app.NewSessionRecorder(redisClient, cfg.Redis, log.Named("history"))
		notifiers = append(notifiers, rec)
		history = rec
	}

	eng := engine.New(dev, engine.Options{
		Machine:      mcfg,
		TickInterval: cfg.Modem.TickInterval,
		Handler:      ipv6.NewHandler(log.Named("ipv6"), appm, nil),
		Notifier:     notifiers,
		Metrics:      appm,
	}, log.Named("engine"))

	// ========== 阶段4: HTTP ==========
	healthAgg := app.NewHealthAggregator(eng, cfg.Modem.TickInterval)
	app.AddRedisChecker(healthAgg, redisClient)

	readyFn := func() bool {
		ready.SetModemReady(eng.Status().ModemReady())
		return ready.Ready()
	}
	httpSrv := app.NewHTTPServer(cfg, metricsHandler, readyFn)
	httpSrv.Register(func(r *gin.Engine) {
		api.RegisterSLACRoutes(r, eng, history, cfg.API.Auth, log)
		app.RegisterHealthRoutes(r, healthAgg)
	})

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()
	ready.SetHTTPReady(true)
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段5: 调度循环 ==========
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()

	// ========== 阶段6: 等待关闭信号 ==========
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, gracefully shutting down...")
	cancel()
	<-done

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = httpSrv.Shutdown(sctx)
	log.Info("http server stopped")

	log.Info("shutdown complete", zap.Int("pending_callbacks", cb.Pending()))
	return nil
}
