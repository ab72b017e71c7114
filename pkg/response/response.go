package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"Kindred/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// StatusFor 根据错误码映射 HTTP 状态码
func StatusFor(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.SessionNotFound.Code:
		return http.StatusNotFound // 404
	case errors.SessionClosed.Code:
		return http.StatusGone // 410
	case errors.OnboardingStepInvalid.Code, errors.MainAppEventInvalid.Code, errors.ModeInvalid.Code:
		return http.StatusConflict // 409
	case errors.IntroNotFound.Code, errors.MatchNotFound.Code:
		return http.StatusNotFound
	case errors.InvalidRequest.Code, errors.InvalidSession.Code, errors.EventUnknown.Code,
		errors.PlanUnknown.Code, errors.LifeMapIndexInvalid.Code, errors.NonNegotiableUnknown.Code,
		errors.PhotoIndexInvalid.Code, errors.VerificationPhotoEmpty.Code,
		errors.DeclineReasonUnknown.Code, errors.TabUnknown.Code:
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	statusCode := StatusFor(err)

	var code, message string
	var def errors.Definition
	if stderrors.As(err, &def) {
		code = def.Code
		message = def.Message
	} else {
		code = errors.Internal.Code
		message = err.Error()
	}

	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

// Created 返回 201
func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
