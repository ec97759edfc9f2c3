package hostmux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryTrackerAllocatesDistinctBases(t *testing.T) {
	rt := NewRetryTracker(2)
	a := rt.Next()
	b := rt.Next()
	require.NotEqual(t, a, b)
	require.Zero(t, a&0b11)
	require.Zero(t, b&0b11)
}

func TestRetryExhaustsAfterBits(t *testing.T) {
	rt := NewRetryTracker(2)
	base := rt.Next()

	_, ok := rt.Retry(base, 3)
	require.True(t, ok)

	_, ok = rt.Retry(base, 4)
	require.False(t, ok)
}

func TestRetryDisabledWhenZeroBits(t *testing.T) {
	rt := NewRetryTracker(0)
	base := rt.Next()
	_, ok := rt.Retry(base, 1)
	require.False(t, ok)
}
