package serial

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// loopback pairs two io.Pipe halves into a single io.ReadWriteCloser so a
// single Port can be tested without a real device.
type loopback struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (l *loopback) Read(p []byte) (int, error)  { return l.r.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.w.Write(p) }
func (l *loopback) Close() error {
	l.r.Close()
	return l.w.Close()
}

func newLoopbackPair() (a, b *loopback) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &loopback{r: ar, w: aw}, &loopback{r: br, w: bw}
}

func TestPortSendReceiveRoundTrip(t *testing.T) {
	sideA, sideB := newLoopbackPair()
	a := New(sideA)
	b := New(sideB)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Send(ctx, []byte("h"), []byte("ello")) }()

	buf := make([]byte, 256)
	frame, err := b.Receive(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(frame))
	require.NoError(t, <-done)
}

func TestPortReceiveRejectsOversizeFrame(t *testing.T) {
	sideA, sideB := newLoopbackPair()
	a := New(sideA)
	b := New(sideB)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// a.Send blocks on the underlying io.Pipe until every byte it wrote is
	// read; b.Receive bails out as soon as it detects the oversize frame,
	// so the write only unblocks once the deferred Close calls tear the
	// pipe down. Run it in the background and don't wait on it.
	big := make([]byte, defaultMaxFrame+1)
	go func() { _ = a.Send(ctx, nil, big) }()

	buf := make([]byte, defaultMaxFrame)
	_, err := b.Receive(ctx, buf)
	require.Error(t, err)
}
