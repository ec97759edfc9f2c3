// Package inproc provides an in-process, channel-backed implementation of
// wire.Tx/wire.Rx/wire.Spawn for tests and for colocating a dispatcher and
// a host client in a single process (spec.md's Non-goals exclude
// prescribing any particular transport; this is the one every other
// package's tests are grounded on).
package inproc

import (
	"context"
	"sync"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
)

// Pipe is a pair of directly-connected endpoints. NewPipe returns the two
// ends; each end's Tx delivers to the other end's Rx.
type Pipe struct {
	toPeer   chan []byte
	fromPeer chan []byte
	closed   chan struct{}
	once     sync.Once
}

// NewPipe creates a connected pair of endpoints, each buffered to depth.
func NewPipe(depth int) (a, b *Pipe) {
	ab := make(chan []byte, depth)
	ba := make(chan []byte, depth)
	closed := make(chan struct{})
	a = &Pipe{toPeer: ab, fromPeer: ba, closed: closed}
	b = &Pipe{toPeer: ba, fromPeer: ab, closed: closed}
	return a, b
}

func (p *Pipe) Close() {
	p.once.Do(func() { close(p.closed) })
}

func (p *Pipe) Send(ctx context.Context, header, body []byte) error {
	frame := make([]byte, 0, len(header)+len(body))
	frame = append(frame, header...)
	frame = append(frame, body...)
	return p.SendRaw(ctx, frame)
}

func (p *Pipe) SendRaw(ctx context.Context, frame []byte) error {
	buf := append([]byte(nil), frame...)
	// Check closed first: select picks at random among ready cases, and a
	// buffered toPeer would otherwise accept frames after Close.
	select {
	case <-p.closed:
		return wire.NewTxError(wire.TxConnectionClosed, errClosed)
	default:
	}
	select {
	case p.toPeer <- buf:
		return nil
	case <-p.closed:
		return wire.NewTxError(wire.TxConnectionClosed, errClosed)
	case <-ctx.Done():
		return wire.NewTxError(wire.TxTimeout, ctx.Err())
	}
}

func (p *Pipe) SendLogStr(ctx context.Context, msg string) error {
	return p.SendRaw(ctx, []byte(msg))
}

func (p *Pipe) WaitConnection(ctx context.Context) error {
	select {
	case <-p.closed:
		return wire.NewTxError(wire.TxConnectionClosed, errClosed)
	case <-ctx.Done():
		return wire.NewTxError(wire.TxTimeout, ctx.Err())
	default:
		return nil
	}
}

func (p *Pipe) Receive(ctx context.Context, buf []byte) ([]byte, error) {
	select {
	case frame, ok := <-p.fromPeer:
		if !ok {
			return nil, wire.NewRxError(wire.RxConnectionClosed, errClosed)
		}
		if len(frame) > cap(buf) {
			return nil, wire.NewRxError(wire.RxMessageTooLarge, errTooLarge)
		}
		n := copy(buf[:cap(buf)], frame)
		return buf[:n], nil
	case <-p.closed:
		return nil, wire.NewRxError(wire.RxConnectionClosed, errClosed)
	case <-ctx.Done():
		return nil, wire.NewRxError(wire.RxOther, ctx.Err())
	}
}

// Spawn runs fn in its own goroutine. It never fails to accept work; the
// WireError.FailedToSpawn path exists for resource-constrained embedded
// executors, which this in-process implementation does not model.
func (p *Pipe) Spawn(fn func(context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		fn(ctx)
	}()
	return nil
}
