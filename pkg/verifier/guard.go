package verifier

import (
	"context"

	"Kindred/internal/model"
	"Kindred/pkg/breaker"
)

// Guarded 核验服务熔断后直接返回错误，会话进入 failure 页可重试
type Guarded struct {
	next Submitter
	cb   *breaker.CircuitBreaker
}

func NewGuarded(next Submitter, cb *breaker.CircuitBreaker) *Guarded {
	return &Guarded{next: next, cb: cb}
}

func (g *Guarded) Submit(ctx context.Context, photo []byte) (model.VerificationResponse, error) {
	// 空照片是调用方的问题，不计入熔断
	if len(photo) == 0 {
		return model.VerificationResponse{}, ErrEmptyPhoto
	}

	var resp model.VerificationResponse
	err := g.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = g.next.Submit(ctx, photo)
		return err
	})
	return resp, err
}
