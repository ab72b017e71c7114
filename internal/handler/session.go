package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"

	"Kindred/internal/middleware"
	"Kindred/internal/model/dto"
	"Kindred/internal/service"
	"Kindred/pkg/errors"
	"Kindred/pkg/response"
)

// maxPhotoBytes 核验照片大小上限
const maxPhotoBytes = 10 << 20

// CreateSession 新建流程会话
// POST /v1/sessions
func CreateSession(ctx context.Context, c *app.RequestContext) {
	snap, err := service.Flow().Create(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, dto.NewSessionResponse(snap))
}

// GetSession 查询会话当前状态与屏幕
// GET /v1/sessions/:session_id
func GetSession(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidSession)
		return
	}

	snap, err := service.Flow().Get(ctx, sessionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.NewSessionResponse(snap))
}

// CloseSession 关闭会话，取消进行中的核验与推荐请求
// DELETE /v1/sessions/:session_id
func CloseSession(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidSession)
		return
	}

	if err := service.Flow().Close(ctx, sessionID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// DispatchEvent 提交一个流程事件
// POST /v1/sessions/:session_id/events
func DispatchEvent(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidSession)
		return
	}

	var req dto.EventRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	ev, err := req.ToEvent()
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	snap, err := service.Flow().Dispatch(ctx, sessionID, ev)
	if err != nil {
		response.ErrorWithDetails(ctx, c, err, map[string]interface{}{"reason": err.Error()})
		return
	}

	response.Success(ctx, c, dto.NewSessionResponse(snap))
}

// GoBack 返回上一屏
// POST /v1/sessions/:session_id/back
func GoBack(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidSession)
		return
	}

	snap, err := service.Flow().Back(ctx, sessionID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.NewSessionResponse(snap))
}

// SubmitVerificationPhoto 上传核验照片（multipart 字段 photo）
// POST /v1/sessions/:session_id/verification
func SubmitVerificationPhoto(ctx context.Context, c *app.RequestContext) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidSession)
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	snap, err := service.Flow().SubmitCapture(ctx, sessionID, photo)
	if err != nil {
		response.ErrorWithDetails(ctx, c, err, map[string]interface{}{"reason": err.Error()})
		return
	}

	response.Success(ctx, c, dto.NewSessionResponse(snap))
}

func readPhoto(c *app.RequestContext) ([]byte, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		return nil, fmt.Errorf("%w: photo file is required", errors.VerificationPhotoEmpty)
	}
	if header.Size > maxPhotoBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", errors.InvalidRequest, maxPhotoBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.InvalidRequest, err)
	}
	defer f.Close()

	photo, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.InvalidRequest, err)
	}
	return photo, nil
}
