package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"Kindred/config"
	"Kindred/internal/model"
	"Kindred/internal/model/dto"
	"Kindred/pkg/response"
)

// GetCatalog 固定的选项列表：人生地图问题、底线选项、拒绝原因、订阅方案
// GET /v1/catalog
func GetCatalog(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, model.NewCatalog())
}

// Healthz 存活检查
// GET /healthz
func Healthz(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, dto.HealthResponse{
		Status:  "ok",
		Service: config.Cfg.ServiceName,
		Version: config.Cfg.Version,
	})
}
