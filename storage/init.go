package storage

import (
	"Kindred/config"
	"Kindred/storage/mq"
	"Kindred/storage/redis"
)

// Init 按配置初始化外部连接，流程状态只在内存中
func Init() error {
	cfg := config.Cfg

	if cfg.RateLimitEnabled {
		if err := redis.Init(); err != nil {
			return err
		}
	}

	if cfg.QueueProvider == "rabbitmq" {
		if err := mq.Init(); err != nil {
			return err
		}
	}

	return nil
}
