package verifier

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

// Submitter 照片核验服务接口
type Submitter interface {
	// Submit 提交一张人脸照片。
	// 空照片返回 ErrEmptyPhoto；调用失败返回其他错误，由调用方转换为 failure 结果
	Submit(ctx context.Context, photo []byte) (model.VerificationResponse, error)
}

var (
	verifierClient Submitter
	verifierOnce   sync.Once
	verifierErr    error
)

// Init 初始化核验服务客户端
func Init() error {
	verifierOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.VerifierProvider {
		case "mock":
			var outcome Outcome
			outcome, verifierErr = ParseOutcome(cfg.VerifierMockOutcome)
			if verifierErr == nil {
				verifierClient = NewGuarded(
					NewMockClient(cfg.VerifierMockDelay, outcome),
					breaker.New("verifier", cfg.BreakerMaxFailures, cfg.BreakerResetTimeout),
				)
			}
		default:
			verifierErr = fmt.Errorf("unsupported verifier provider: %s", cfg.VerifierProvider)
		}

		if verifierErr != nil {
			logger.Logger.Error("Failed to initialize verifier client", zap.Error(verifierErr))
			return
		}

		logger.Logger.Info("Verifier client initialized successfully",
			zap.String("provider", cfg.VerifierProvider),
			zap.String("outcome", cfg.VerifierMockOutcome),
		)
	})

	return verifierErr
}

func GetClient() Submitter {
	if verifierClient == nil {
		panic("Verifier client not initialized, call verifier.Init() first")
	}
	return verifierClient
}
