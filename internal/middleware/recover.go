package middleware

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/pkg/errors"
	"Kindred/pkg/logger"
	"Kindred/pkg/response"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 严重错误回调，可用于告警
	OnSevereError func(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte)
	// 是否启用堆栈追踪
	EnableStackTrace bool
	// 生产环境是否返回详细错误
	ExposeDetailsInProduction bool
	// 是否在 span 中记录异常
	RecordInSpan bool
	IsProduction bool
}

func NewRecoverConfig() RecoverConfig {
	return RecoverConfig{
		EnableStackTrace: true,
		RecordInSpan:     true,
		IsProduction:     config.Cfg.IsProduction(),
	}
}

func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig())
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	var stack []byte
	if cfg.EnableStackTrace {
		stack = getStackTrace()
	}

	logPanic(ctx, c, err, stack, cfg)

	if cfg.OnSevereError != nil && isSeverePanic(err) {
		cfg.OnSevereError(ctx, c, err, stack)
	}

	writeErrorResponse(ctx, c, err, stack, cfg)
	c.Abort()
}

func writeErrorResponse(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, cfg RecoverConfig) {
	if cfg.IsProduction && !cfg.ExposeDetailsInProduction {
		response.Error(ctx, c, errors.Internal)
		return
	}

	details := map[string]interface{}{
		"panic":     fmt.Sprintf("%v", err),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if cfg.EnableStackTrace {
		details["stack"] = string(stack)
	}
	response.ErrorWithDetails(ctx, c, errors.Internal, details)
}

// getStackTrace 当前 goroutine 的调用栈，跳过 runtime 与 recover 自身
func getStackTrace() []byte {
	var buf bytes.Buffer
	buf.WriteString("goroutine panic:\n")
	for i := 4; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil || strings.Contains(file, "/runtime/") {
			continue
		}
		fmt.Fprintf(&buf, "  %s:%d\n    %s\n", file, line, fn.Name())
	}
	return buf.Bytes()
}

func logPanic(ctx context.Context, c *app.RequestContext, err interface{}, stack []byte, cfg RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", GetRequestID(c)),
	}
	if sessionID, ok := GetSessionID(c); ok {
		fields = append(fields, zap.String("session_id", sessionID))
	}
	if cfg.EnableStackTrace {
		fields = append(fields, zap.ByteString("stack", stack))
	}

	if cfg.RecordInSpan {
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("panic: %v", err))
		span.SetStatus(codes.Error, "panic recovered")
	}

	logger.Logger.Error("[PANIC RECOVERED]", fields...)
}

// isSeverePanic 运行时错误视为严重
func isSeverePanic(err interface{}) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(runtime.Error); ok {
		return true
	}

	errStr := fmt.Sprintf("%v", err)
	for _, pattern := range []string{"out of memory", "concurrent map", "deadlock"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
