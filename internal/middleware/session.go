package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"Kindred/pkg/errors"
	"Kindred/pkg/response"
	"Kindred/pkg/snowflake"
)

const sessionIDKey = "session_id"

// SessionParamMiddleware 校验路径中的会话 id 格式
func SessionParamMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := c.Param(sessionIDKey)
		if _, err := snowflake.Parse(id); err != nil {
			response.Error(ctx, c, errors.InvalidSession)
			c.Abort()
			return
		}
		c.Set(sessionIDKey, id)
		c.Next(ctx)
	}
}

// GetSessionID 只有经过 SessionParamMiddleware 的路由才有值
func GetSessionID(c *app.RequestContext) (string, bool) {
	id := c.GetString(sessionIDKey)
	return id, id != ""
}
