package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"Kindred/internal/handler"
	"Kindred/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", handler.Healthz)

	v1 := h.Group("/v1")
	v1.GET("/catalog", handler.GetCatalog)

	// 流程会话路由
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", middleware.CreateRateLimitMiddleware(), handler.CreateSession)

		session := sessions.Group("/:session_id", middleware.SessionParamMiddleware())
		{
			session.GET("", handler.GetSession)
			session.DELETE("", handler.CloseSession)
			session.POST("/events", middleware.EventRateLimitMiddleware(), handler.DispatchEvent)
			session.POST("/back", middleware.EventRateLimitMiddleware(), handler.GoBack)
			// 核验照片走 multipart，大小由 handler 限制
			session.POST("/verification", middleware.EventRateLimitMiddleware(), handler.SubmitVerificationPhoto)
		}
	}
}
