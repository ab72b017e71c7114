package middleware

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/pkg/logger"
)

// Init 注册 HTTP 指标；未开启 OTel 时使用全局 no-op provider
func Init() error {
	if err := InitMetrics(otel.Meter(config.Cfg.ServiceName)); err != nil {
		logger.Logger.Error("Failed to initialize HTTP metrics", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
