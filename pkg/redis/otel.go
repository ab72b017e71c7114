package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	redisCommandsTotal   metric.Int64Counter
	redisCommandDuration metric.Float64Histogram
)

// InitRedisMetrics 初始化 Redis 指标
func InitRedisMetrics(meter metric.Meter) error {
	var err error

	redisCommandsTotal, err = meter.Int64Counter(
		"redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	redisCommandDuration, err = meter.Float64Histogram(
		"redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	return err
}

// TracingHook Redis 追踪 Hook
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

func NewTracingHook(serviceName string, db int) *TracingHook {
	return &TracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
			attribute.String("service.name", serviceName),
		},
	}
}

func (th *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (th *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		span.SetAttributes(semconv.DBOperation(cmd.Name()))
		if keys := extractKeys(cmd.Args()); len(keys) > 0 {
			span.SetAttributes(attribute.StringSlice("redis.keys", keys))
		}

		startTime := time.Now()
		err := next(ctx, cmd)
		duration := time.Since(startTime).Seconds()

		status := "success"
		switch {
		case errors.Is(err, redis.Nil):
			status = "not_found"
		case err != nil:
			status = "error"
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}

		if redisCommandsTotal != nil {
			labels := metric.WithAttributes(
				attribute.String("redis.command", cmd.Name()),
				attribute.String("redis.status", status),
			)
			redisCommandsTotal.Add(ctx, 1, labels)
			redisCommandDuration.Record(ctx, duration, labels)
		}

		return err
	}
}

func (th *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := th.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(th.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.String("redis.pipeline.commands", strings.Join(names, ";")),
		)

		err := next(ctx, cmds)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// extractKeys 只取前几个参数作为键名，不记录值
func extractKeys(args []interface{}) []string {
	if len(args) < 2 {
		return nil
	}
	keys := make([]string, 0, 1)
	if key, ok := args[1].(string); ok {
		keys = append(keys, sanitizeKey(key))
	}
	return keys
}

// sanitizeKey 隐藏会话 id、手机号等敏感片段
func sanitizeKey(key string) string {
	if strings.Contains(key, "session") || strings.Contains(key, "phone") {
		parts := strings.Split(key, ":")
		if len(parts) > 1 {
			return parts[0] + ":***"
		}
		return "***"
	}

	if len(key) > 100 {
		return key[:100] + "..."
	}
	return key
}

// InstrumentRedisClient 为 Redis 客户端添加 OpenTelemetry 支持
func InstrumentRedisClient(client *redis.Client, serviceName string, db int) *redis.Client {
	client.AddHook(NewTracingHook(serviceName, db))
	return client
}
