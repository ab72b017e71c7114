package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	require.NoError(t, Init(1, 1))

	a, err := NextString()
	require.NoError(t, err)
	b, err := NextString()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	parsed, err := Parse(a)
	require.NoError(t, err)
	assert.Positive(t, parsed)

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}
