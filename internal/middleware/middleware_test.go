package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Kindred/pkg/snowflake"
)

func newEngine() *route.Engine {
	return route.NewEngine(config.NewOptions([]config.Option{}))
}

func ok(ctx context.Context, c *app.RequestContext) {
	c.String(http.StatusOK, "ok")
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := newEngine()
	var seen string
	engine.GET("/ping", RequestIDMiddleware(), func(ctx context.Context, c *app.RequestContext) {
		seen = GetRequestID(c)
		c.String(http.StatusOK, "pong")
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/ping", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, resp.Header.Get(HeaderRequestID))

	w = ut.PerformRequest(engine, http.MethodGet, "/ping", nil, ut.Header{Key: HeaderRequestID, Value: "req-123"})
	assert.Equal(t, "req-123", w.Result().Header.Get(HeaderRequestID))
	assert.Equal(t, "req-123", seen)
}

func TestCORSMiddleware(t *testing.T) {
	engine := newEngine()
	engine.Use(CORSMiddleware())
	engine.GET("/ping", ok)
	engine.OPTIONS("/ping", ok)

	w := ut.PerformRequest(engine, http.MethodOptions, "/ping", nil, ut.Header{Key: "Origin", Value: "https://app.kindred.test"})
	resp := w.Result()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "https://app.kindred.test", resp.Header.Get("Access-Control-Allow-Origin"))

	w = ut.PerformRequest(engine, http.MethodGet, "/ping", nil)
	assert.Equal(t, "*", w.Result().Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoverMiddleware(t *testing.T) {
	engine := newEngine()
	engine.Use(RecoverMiddlewareWithConfig(RecoverConfig{IsProduction: true}))
	engine.GET("/boom", func(ctx context.Context, c *app.RequestContext) {
		panic("boom")
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/boom", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "INTERNAL_ERROR")
	assert.NotContains(t, string(resp.Body()), "boom")
}

func TestRecoverMiddleware_ExposesDetailsOutsideProduction(t *testing.T) {
	engine := newEngine()
	engine.Use(RecoverMiddlewareWithConfig(RecoverConfig{}))
	engine.GET("/boom", func(ctx context.Context, c *app.RequestContext) {
		panic("boom")
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/boom", nil)
	assert.Contains(t, string(w.Result().Body()), "boom")
}

func TestSessionParamMiddleware(t *testing.T) {
	require.NoError(t, snowflake.Init(1, 1))
	id, err := snowflake.NextString()
	require.NoError(t, err)

	engine := newEngine()
	var seen string
	engine.GET("/v1/sessions/:session_id", SessionParamMiddleware(), func(ctx context.Context, c *app.RequestContext) {
		seen, _ = GetSessionID(c)
		c.String(http.StatusOK, "ok")
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, id, seen)

	w = ut.PerformRequest(engine, http.MethodGet, "/v1/sessions/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "INVALID_SESSION_ID")
}

func TestRateLimitMiddleware_DisabledPassesThrough(t *testing.T) {
	engine := newEngine()
	engine.GET("/ping", EventRateLimitMiddleware(), ok)

	for i := 0; i < 50; i++ {
		w := ut.PerformRequest(engine, http.MethodGet, "/ping", nil)
		require.Equal(t, http.StatusOK, w.Result().StatusCode())
	}
}

func TestEventRateLimitConfig(t *testing.T) {
	cfg := EventRateLimitConfig()
	assert.True(t, cfg.BySession)
	assert.Positive(t, cfg.MaxRequests)
}
