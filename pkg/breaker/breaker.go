package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Kindred/pkg/logger"
)

// ErrOpen 熔断期间直接拒绝调用
var ErrOpen = errors.New("circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 熔断中
	StateHalfOpen              // 试探恢复
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 保护外部协作方（推荐服务、核验服务）。
// 调用方主动取消的请求不计入失败
type CircuitBreaker struct {
	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMaxCalls int
	now              func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	lastFailTime  time.Time
	halfOpenCalls int
}

type Option func(*CircuitBreaker)

// WithClock 测试用
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithHalfOpenCalls 半开状态允许同时试探的调用数，默认 1
func WithHalfOpenCalls(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.halfOpenMaxCalls = n
		}
	}
}

// New maxFailures <= 0 时熔断器永不打开
func New(name string, maxFailures int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenMaxCalls: 1,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Call 执行带熔断保护的操作
func (cb *CircuitBreaker) Call(ctx context.Context, operation func(context.Context) error) error {
	if err := cb.acquire(); err != nil {
		return err
	}

	err := operation(ctx)
	cb.record(ctx, err)
	return err
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailTime) >= cb.resetTimeout {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.halfOpenMaxCalls {
			cb.halfOpenCalls++
			return nil
		}
	}
	return fmt.Errorf("%s: %w", cb.name, ErrOpen)
}

func (cb *CircuitBreaker) record(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenCalls > 0 {
		cb.halfOpenCalls--
	}

	// 离开屏幕导致的取消不是对方的问题
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return
	}

	if err == nil {
		cb.failures = 0
		if cb.state != StateClosed {
			cb.transition(StateClosed)
		}
		return
	}

	cb.failures++
	cb.lastFailTime = cb.now()

	logger.Logger.Warn("Collaborator call failed",
		zap.String("breaker", cb.name),
		zap.Int("failures", cb.failures),
		zap.String("state", cb.state.String()),
		zap.Error(err),
	)

	switch cb.state {
	case StateClosed:
		if cb.maxFailures > 0 && cb.failures >= cb.maxFailures {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.halfOpenCalls = 0
	if to == StateClosed {
		cb.failures = 0
	}

	logger.Logger.Info("Circuit breaker state changed",
		zap.String("breaker", cb.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Duration("reset_timeout", cb.resetTimeout),
	)
}

// State 当前状态；打开后超过 resetTimeout 的熔断器在下一次调用时才转为半开
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
