package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDialAcceptHandshakeExchangesDistinctIDs(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan *Conn, 1)
	serverErrCh := make(chan error, 1)
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			serverErrCh <- err
			return
		}
		c, err := Accept(nc)
		if err != nil {
			serverErrCh <- err
			return
		}
		serverConnCh <- c
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	var server *Conn
	select {
	case server = <-serverConnCh:
	case err := <-serverErrCh:
		t.Fatalf("accept side failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server accept")
	}
	defer server.Close()

	require.NotEqual(t, client.LocalID(), server.LocalID())
	require.Equal(t, client.LocalID(), server.PeerID())
	require.Equal(t, server.LocalID(), client.PeerID())
}

func TestSendReceiveRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan *Conn, 1)
	go func() {
		nc, err := ln.Accept()
		require.NoError(t, err)
		c, err := Accept(nc)
		require.NoError(t, err)
		serverConnCh <- c
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-serverConnCh
	defer server.Close()

	sendCtx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, client.Send(sendCtx, []byte("hdr"), []byte("body")))

	buf := make([]byte, 1024)
	recvCtx, cancel3 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel3()
	frame, err := server.Receive(recvCtx, buf)
	require.NoError(t, err)
	require.Equal(t, "hdrbody", string(frame))
}
