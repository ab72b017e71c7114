package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Kindred/pkg/logger"
	"Kindred/storage/mq"
	"Kindred/storage/redis"
)

// Close 先停 MQ 再关 Redis
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	if err := mq.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close message queue", zap.Error(err))
	}

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}

	logger.Logger.Info("All storage connections closed")
}
