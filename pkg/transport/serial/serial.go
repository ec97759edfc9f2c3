// Package serial implements wire.Tx/wire.Rx/wire.Spawn over any
// io.ReadWriteCloser, COBS-framed per spec.md 6. No serial-port library
// appears anywhere in the retrieved example pack (see DESIGN.md), so this
// package takes an already-opened port (e.g. from an external serial
// library the caller links in) rather than owning device discovery or
// baud configuration itself.
package serial

import (
	"context"
	"io"

	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/cobs"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
)

const defaultMaxFrame = 1 << 16

// Port adapts an open byte-stream device into the wire interfaces.
type Port struct {
	rwc io.ReadWriteCloser
	acc *cobs.Accumulator
}

func New(rwc io.ReadWriteCloser) *Port {
	return &Port{rwc: rwc, acc: cobs.NewAccumulator(defaultMaxFrame)}
}

func (p *Port) Send(ctx context.Context, header, body []byte) error {
	frame := make([]byte, 0, len(header)+len(body))
	frame = append(frame, header...)
	frame = append(frame, body...)
	return p.SendRaw(ctx, frame)
}

func (p *Port) SendRaw(ctx context.Context, frame []byte) error {
	encoded := append(cobs.Encode(frame), 0x00)
	if _, err := p.rwc.Write(encoded); err != nil {
		if err == io.EOF {
			return wire.NewTxError(wire.TxConnectionClosed, err)
		}
		return wire.NewTxError(wire.TxOther, err)
	}
	return nil
}

func (p *Port) SendLogStr(ctx context.Context, msg string) error {
	return p.SendRaw(ctx, []byte(msg))
}

func (p *Port) WaitConnection(ctx context.Context) error { return nil }

func (p *Port) Receive(ctx context.Context, buf []byte) ([]byte, error) {
	chunk := make([]byte, 256)
	for {
		n, err := p.rwc.Read(chunk)
		if n > 0 {
			frames, ferr := p.acc.Feed(chunk[:n])
			if len(frames) > 0 {
				if len(frames[0]) > cap(buf) {
					return nil, wire.NewRxError(wire.RxMessageTooLarge, errOversize)
				}
				return buf[:copy(buf[:cap(buf)], frames[0])], nil
			}
			if ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, wire.NewRxError(wire.RxConnectionClosed, err)
			}
			return nil, wire.NewRxError(wire.RxOther, err)
		}
	}
}

func (p *Port) Spawn(fn func(context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		fn(ctx)
	}()
	return nil
}

func (p *Port) Close() error { return p.rwc.Close() }
