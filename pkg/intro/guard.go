package intro

import (
	"context"

	"Kindred/internal/model"
	"Kindred/pkg/breaker"
)

// Guarded 推荐服务连续失败后短时间内直接失败，列表降级为空
type Guarded struct {
	next Provider
	cb   *breaker.CircuitBreaker
}

func NewGuarded(next Provider, cb *breaker.CircuitBreaker) *Guarded {
	return &Guarded{next: next, cb: cb}
}

func (g *Guarded) FetchIntros(ctx context.Context) ([]model.IntroCardData, error) {
	var intros []model.IntroCardData
	err := g.cb.Call(ctx, func(ctx context.Context) error {
		var err error
		intros, err = g.next.FetchIntros(ctx)
		return err
	})
	return intros, err
}
