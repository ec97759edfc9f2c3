package inproc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
)

func TestPipeSendReceive(t *testing.T) {
	a, b := NewPipe(4)
	ctx := context.Background()

	require.NoError(t, a.Send(ctx, []byte{1, 2}, []byte{3, 4}))

	buf := make([]byte, 16)
	got, err := b.Receive(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestPipeCloseUnblocksBothEnds(t *testing.T) {
	a, b := NewPipe(1)
	a.Close()

	ctx := context.Background()
	err := a.Send(ctx, nil, []byte{1})
	require.Error(t, err)
	require.Equal(t, wire.TxConnectionClosed, wire.AsTxKind(err))

	_, err = b.Receive(ctx, make([]byte, 8))
	require.Error(t, err)
	require.Equal(t, wire.RxConnectionClosed, wire.AsRxKind(err))
}

func TestPipeReceiveBufferTooSmall(t *testing.T) {
	a, b := NewPipe(4)
	ctx := context.Background()
	require.NoError(t, a.SendRaw(ctx, []byte{1, 2, 3, 4, 5}))

	_, err := b.Receive(ctx, make([]byte, 2))
	require.Error(t, err)
	require.Equal(t, wire.RxMessageTooLarge, wire.AsRxKind(err))
}
