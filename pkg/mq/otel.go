package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	mqMessagesTotal   metric.Int64Counter
	mqPublishDuration metric.Float64Histogram
	mqPublishErrors   metric.Int64Counter
)

// InitMQMetrics 初始化 RabbitMQ 发布指标
func InitMQMetrics(meter metric.Meter) error {
	var err error

	mqMessagesTotal, err = meter.Int64Counter(
		"mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mqPublishDuration, err = meter.Float64Histogram(
		"mq.publish.duration",
		metric.WithDescription("RabbitMQ publish duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return err
	}

	mqPublishErrors, err = meter.Int64Counter(
		"mq.publish.errors",
		metric.WithDescription("Number of RabbitMQ publish errors"),
		metric.WithUnit("{error}"),
	)
	return err
}

// Channel 发布所需的最小 channel 接口，*amqp.Channel 满足
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// InstrumentedChannel 给发布加上 span 和 trace 头
type InstrumentedChannel struct {
	ch          Channel
	serviceName string
	propagators propagation.TextMapPropagator
	tracer      trace.Tracer
}

func NewInstrumentedChannel(ch Channel, serviceName string) *InstrumentedChannel {
	return &InstrumentedChannel{
		ch:          ch,
		serviceName: serviceName,
		propagators: otel.GetTextMapPropagator(),
		tracer:      otel.Tracer(serviceName + ".rabbitmq"),
	}
}

// PublishWithContext 发布消息，把当前 trace 上下文注入消息头
func (ic *InstrumentedChannel) PublishWithContext(
	ctx context.Context,
	exchange, routingKey string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	startTime := time.Now()

	spanName := "rabbitmq.publish"
	if exchange != "" {
		spanName = "rabbitmq.publish." + exchange
	}

	ctx, span := ic.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.destination.name", exchange),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.String("service.name", ic.serviceName),
		),
	)
	defer span.End()

	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}
	ic.propagators.Inject(ctx, &MessageHeaderCarrier{Headers: headers})
	msg.Headers = headers

	err := ic.ch.PublishWithContext(ctx, exchange, routingKey, mandatory, immediate, msg)
	duration := time.Since(startTime).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		if mqPublishErrors != nil {
			mqPublishErrors.Add(ctx, 1)
		}
	} else {
		span.SetStatus(codes.Ok, "Message published successfully")
	}

	if mqMessagesTotal != nil {
		labels := metric.WithAttributes(
			semconv.MessagingSystem("rabbitmq"),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.String("messaging.status", status),
		)
		mqMessagesTotal.Add(ctx, 1, labels)
		mqPublishDuration.Record(ctx, duration, labels)
	}

	return err
}

// MessageHeaderCarrier 实现 propagation.TextMapCarrier
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}
