package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/pkg/logger"
)

var (
	conn     *amqp.Connection
	connMu   sync.RWMutex
	initOnce sync.Once
	initErr  error
)

// Init 建立连接并声明流程事件使用的 topic exchange
func Init() error {
	initOnce.Do(func() {
		cfg := config.Cfg

		c, err := amqp.Dial(cfg.GetRabbitMQURL())
		if err != nil {
			initErr = fmt.Errorf("failed to dial rabbitmq: %w", err)
			return
		}

		ch, err := c.Channel()
		if err != nil {
			_ = c.Close()
			initErr = fmt.Errorf("failed to open rabbitmq channel: %w", err)
			return
		}
		defer ch.Close()

		if err := ch.ExchangeDeclare(
			cfg.RabbitMQExchange,
			amqp.ExchangeTopic,
			true,  // durable
			false, // autoDelete
			false, // internal
			false, // noWait
			nil,
		); err != nil {
			_ = c.Close()
			initErr = fmt.Errorf("failed to declare exchange %s: %w", cfg.RabbitMQExchange, err)
			return
		}

		connMu.Lock()
		conn = c
		connMu.Unlock()

		logger.Logger.Info("RabbitMQ connected",
			zap.String("component", "rabbitmq"),
			zap.String("exchange", cfg.RabbitMQExchange),
		)
	})

	return initErr
}

func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	return conn
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	connMu.Lock()
	defer connMu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	conn = nil
	return err
}
