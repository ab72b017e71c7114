package intro

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/internal/model"
	"Kindred/pkg/breaker"
	"Kindred/pkg/logger"
)

// Provider 推荐服务接口。
// 失败时返回描述性错误，调用方需要把推荐列表当作空列表处理。
type Provider interface {
	FetchIntros(ctx context.Context) ([]model.IntroCardData, error)
}

var (
	introClient Provider
	introOnce   sync.Once
	introErr    error
)

// Init 初始化推荐服务客户端
func Init() error {
	introOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.IntroProvider {
		case "mock":
			introClient = NewGuarded(
				NewMockClient(cfg.IntroMockDelay, cfg.IntroMockCount),
				breaker.New("intro", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout),
			)
		default:
			introErr = fmt.Errorf("unsupported intro provider: %s", cfg.IntroProvider)
		}

		if introErr != nil {
			logger.Logger.Error("Failed to initialize intro client", zap.Error(introErr))
			return
		}

		logger.Logger.Info("Intro client initialized successfully",
			zap.String("provider", cfg.IntroProvider),
			zap.Duration("mock_delay", cfg.IntroMockDelay),
		)
	})

	return introErr
}

func GetClient() Provider {
	if introClient == nil {
		panic("Intro client not initialized, call intro.Init() first")
	}
	return introClient
}
