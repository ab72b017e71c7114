package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"Kindred/config"
)

func TestNewPublisher(t *testing.T) {
	p := NewPublisher(config.Config{QueueProvider: "none"})
	assert.IsType(t, LogPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), FlowEventMessage{Topic: "intro.accepted"}))

	p = NewPublisher(config.Config{QueueProvider: "rabbitmq", RabbitMQExchange: "kindred.flow"})
	rp, ok := p.(*RabbitPublisher)
	assert.True(t, ok)
	assert.Equal(t, "kindred.flow", rp.exchange)
}
