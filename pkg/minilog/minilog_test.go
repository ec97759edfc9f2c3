package minilog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndDelLogger(t *testing.T) {
	r := NewRing(8)
	AddLogger("test", ringWriter{r}, DEBUG, false)
	defer DelLogger("test")

	require.Contains(t, Loggers(), "test")
	require.True(t, WillLog(DEBUG))

	Info("hello %s", "world")
	lines := r.Dump()
	require.NotEmpty(t, lines)
}

func TestSetLevelRejectsUnknownLogger(t *testing.T) {
	err := SetLevel("does-not-exist", WARN)
	require.Error(t, err)
}

func TestFiltersSuppressMatchingLines(t *testing.T) {
	r := NewRing(8)
	AddLogger("filtered", ringWriter{r}, DEBUG, false)
	defer DelLogger("filtered")

	require.NoError(t, AddFilter("filtered", "secret"))
	Info("this has a secret token in it")
	Info("this one is fine")

	lines := r.Dump()
	for _, l := range lines {
		require.NotContains(t, l, "secret token")
	}
}

// ringWriter adapts Ring's Println-based API to io.Writer so it can be
// used with golog.New inside AddLogger.
type ringWriter struct{ r *Ring }

func (w ringWriter) Write(p []byte) (int, error) {
	w.r.Println(string(p))
	return len(p), nil
}
