package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Kindred/internal/model"
	"Kindred/pkg/breaker"
)

func TestGuarded_EmptyPhotoDoesNotTrip(t *testing.T) {
	cb := breaker.New("verifier", 1, time.Minute)
	g := NewGuarded(NewMockClient(0, OutcomeSuccess), cb)

	_, err := g.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyPhoto)
	assert.Equal(t, breaker.StateClosed, cb.State())

	resp, err := g.Submit(context.Background(), []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, model.VerificationSuccess, resp.Status)
}

func TestGuarded_UpstreamErrorsOpen(t *testing.T) {
	cb := breaker.New("verifier", 2, time.Minute)
	g := NewGuarded(NewMockClient(0, OutcomeError), cb)

	for i := 0; i < 2; i++ {
		_, err := g.Submit(context.Background(), []byte("jpeg"))
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := g.Submit(context.Background(), []byte("jpeg"))
	assert.ErrorIs(t, err, breaker.ErrOpen)
}
