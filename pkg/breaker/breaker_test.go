package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	cb := New("intro", 3, 10*time.Second, WithClock(clk.now))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Call(ctx, fail), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Call(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := New("intro", 2, time.Second)
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	require.NoError(t, cb.Call(ctx, succeed))
	_ = cb.Call(ctx, fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	cb := New("verifier", 1, 10*time.Second, WithClock(clk.now))
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clk.t = clk.t.Add(10 * time.Second)

	// 半开期间只放行一个试探请求
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Call(ctx, func(context.Context) error { <-release; return nil })
	}()
	require.Eventually(t, func() bool { return cb.State() == StateHalfOpen }, time.Second, time.Millisecond)
	assert.ErrorIs(t, cb.Call(ctx, succeed), ErrOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	cb := New("verifier", 1, 10*time.Second, WithClock(clk.now))
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	clk.t = clk.t.Add(11 * time.Second)

	assert.ErrorIs(t, cb.Call(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(ctx, succeed), ErrOpen)
}

func TestCircuitBreaker_CancellationIsNotFailure(t *testing.T) {
	cb := New("intro", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_DisabledNeverOpens(t *testing.T) {
	cb := New("intro", 0, time.Minute)
	for i := 0; i < 10; i++ {
		_ = cb.Call(context.Background(), fail)
	}
	assert.Equal(t, StateClosed, cb.State())
}
