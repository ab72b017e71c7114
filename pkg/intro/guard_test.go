package intro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Kindred/pkg/breaker"
)

func TestGuarded_OpensAfterFailures(t *testing.T) {
	mock := NewMockClient(0, 2)
	g := NewGuarded(mock, breaker.New("intro", 1, time.Minute))
	ctx := context.Background()

	intros, err := g.FetchIntros(ctx)
	require.NoError(t, err)
	assert.Len(t, intros, 2)

	mock.FailNext = true
	_, err = g.FetchIntros(ctx)
	require.Error(t, err)

	_, err = g.FetchIntros(ctx)
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 2, mock.Calls, "open breaker must not reach the provider")
}
