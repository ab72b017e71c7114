package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	appconfig "Kindred/config"
	"Kindred/internal/flow"
	"Kindred/internal/middleware"
	"Kindred/internal/queue"
	"Kindred/internal/router"
	"Kindred/internal/service"
	"Kindred/pkg/intro"
	"Kindred/pkg/logger"
	"Kindred/pkg/metrics"
	pkgmq "Kindred/pkg/mq"
	pkgotel "Kindred/pkg/otel"
	pkgredis "Kindred/pkg/redis"
	"Kindred/pkg/snowflake"
	"Kindred/pkg/verifier"
	"Kindred/storage"
)

func main() {
	// 日志部分
	logger.Init()
	defer logger.Sync()

	cfg := appconfig.Cfg

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// OTel 必须在 storage 之前，Redis hook 和 MQ 指标依赖全局 provider
	shutdownOTel := initTelemetry(ctx, cfg)
	defer func() {
		otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer otelCancel()
		if err := shutdownOTel(otelCtx); err != nil {
			logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := intro.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize intro provider", zap.Error(err))
	}

	if err := verifier.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize verifier", zap.Error(err))
	}

	svc := service.InitFlow(service.FlowDeps{
		Machine:   flow.NewMachine(),
		Intros:    intro.GetClient(),
		Verifier:  verifier.GetClient(),
		Publisher: queue.NewPublisher(cfg),
		IdleTTL:   cfg.SessionIdleTTL,
	})
	go svc.Run(ctx, cfg.SessionSweepInterval)

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
	)

	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)
	opts := []config.Option{server.WithHostPorts(addr)}

	var tracerMw app.HandlerFunc
	if cfg.OTelEnabled {
		tracer, mw := middleware.NewServerTracerConfig()
		opts = append(opts, tracer)
		tracerMw = mw
	}

	h := server.Default(opts...)
	if tracerMw != nil {
		h.Use(tracerMw)
	}

	run(ctx, h, svc, addr)
}

// run 注册路由并阻塞到收到关闭信号
func run(ctx context.Context, h *server.Hertz, svc *service.FlowService, addr string) {
	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
		if err := svc.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown flow service", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

// initTelemetry 未开启时返回空清理函数，指标走全局 no-op provider
func initTelemetry(ctx context.Context, cfg appconfig.Config) func(context.Context) error {
	shutdown := func(context.Context) error { return nil }

	if cfg.OTelEnabled {
		fn, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTelEndpoint,
			SampleRatio:    cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry, continuing without export", zap.Error(err))
		} else {
			shutdown = fn
		}
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize flow metrics", zap.Error(err))
	}

	meter := otel.Meter(cfg.ServiceName)
	if err := pkgredis.InitRedisMetrics(meter); err != nil {
		logger.Logger.Warn("Failed to initialize Redis metrics", zap.Error(err))
	}
	if err := pkgmq.InitMQMetrics(meter); err != nil {
		logger.Logger.Warn("Failed to initialize MQ metrics", zap.Error(err))
	}

	return shutdown
}
