package verifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"Kindred/internal/model"
	pkgerrors "Kindred/pkg/errors"
)

// Outcome mock 核验服务的固定结果
type Outcome string

const (
	OutcomeRandom       Outcome = "random"
	OutcomeSuccess      Outcome = "success"
	OutcomeFailure      Outcome = "failure"
	OutcomeManualReview Outcome = "manual-review"
	OutcomeError        Outcome = "error"
)

// ErrEmptyPhoto 提交了空照片
var ErrEmptyPhoto = pkgerrors.VerificationPhotoEmpty

// ErrUnavailable mock 模拟服务不可用
var ErrUnavailable = errors.New("verification service unavailable")

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeRandom, OutcomeSuccess, OutcomeFailure, OutcomeManualReview, OutcomeError:
		return o, nil
	}
	return "", fmt.Errorf("unsupported verifier mock outcome: %s", s)
}

type MockClient struct {
	delay   time.Duration
	outcome Outcome
	roll    func() float64
}

func NewMockClient(delay time.Duration, outcome Outcome) *MockClient {
	return &MockClient{
		delay:   delay,
		outcome: outcome,
		roll:    rand.Float64,
	}
}

func (m *MockClient) Submit(ctx context.Context, photo []byte) (model.VerificationResponse, error) {
	if len(photo) == 0 {
		return model.VerificationResponse{}, ErrEmptyPhoto
	}

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.VerificationResponse{}, ctx.Err()
		case <-timer.C:
		}
	}

	outcome := m.outcome
	if outcome == OutcomeRandom {
		// 70% 通过，20% 失败，10% 人工审核
		switch r := m.roll(); {
		case r < 0.7:
			outcome = OutcomeSuccess
		case r < 0.9:
			outcome = OutcomeFailure
		default:
			outcome = OutcomeManualReview
		}
	}

	switch outcome {
	case OutcomeSuccess:
		return model.VerificationResponse{Status: model.VerificationSuccess}, nil
	case OutcomeFailure:
		return model.VerificationResponse{
			Status:  model.VerificationFailure,
			Message: "Face not clearly visible. Find better lighting and try again.",
		}, nil
	case OutcomeManualReview:
		return model.VerificationResponse{Status: model.VerificationManualReview}, nil
	default:
		return model.VerificationResponse{}, ErrUnavailable
	}
}
