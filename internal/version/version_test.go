package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompatibleSameMajor(t *testing.T) {
	require.True(t, Compatible("1.4.2"))
}

func TestIncompatibleDifferentMajor(t *testing.T) {
	require.False(t, Compatible("2.0.0"))
}

func TestIncompatibleGarbage(t *testing.T) {
	require.False(t, Compatible("not-a-version"))
}
