package foundation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Ok(t *testing.T) {
	r := Ok[int, error](42)
	require.True(t, r.IsOk())
	assert.False(t, r.IsErr())
	assert.Equal(t, 42, r.Unwrap())
	assert.Panics(t, func() { r.UnwrapErr() })

	v, err := r.ToTuple()
	assert.Equal(t, 42, v)
	assert.NoError(t, err)
}

func TestResult_Err(t *testing.T) {
	boom := errors.New("boom")
	r := Err[string](boom)
	require.True(t, r.IsErr())
	assert.Equal(t, boom, r.UnwrapErr())
	assert.PanicsWithValue(t, "Unwrap on failed result: boom", func() { r.Unwrap() })

	v, err := r.ToTuple()
	assert.Empty(t, v)
	assert.ErrorIs(t, err, boom)
}
