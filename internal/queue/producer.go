package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/pkg/logger"
	"Kindred/storage/mq"
)

// Publisher 流程事件发布接口
type Publisher interface {
	Publish(ctx context.Context, msg FlowEventMessage) error
}

// NewPublisher 按 QUEUE_PROVIDER 选择实现，none 时只写日志
func NewPublisher(cfg config.Config) Publisher {
	if cfg.QueueProvider == "rabbitmq" {
		return &RabbitPublisher{exchange: cfg.RabbitMQExchange}
	}
	return LogPublisher{}
}

// RabbitPublisher 发布到 topic exchange
type RabbitPublisher struct {
	exchange string
}

func (p *RabbitPublisher) Publish(ctx context.Context, msg FlowEventMessage) error {
	if err := mq.PublishMessage(ctx, p.exchange, msg.Topic, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish flow event",
			zap.String("topic", msg.Topic),
			zap.String("session_id", msg.SessionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish %s: %w", msg.Topic, err)
	}

	logger.Logger.Debug("Flow event published",
		zap.String("topic", msg.Topic),
		zap.String("message_id", msg.MessageID),
	)
	return nil
}

type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, msg FlowEventMessage) error {
	logger.Logger.Info("Flow event",
		zap.String("topic", msg.Topic),
		zap.String("session_id", msg.SessionID),
		zap.Any("attributes", msg.Attributes),
	)
	return nil
}
