// Package tcp implements a wire.Tx/wire.Rx/wire.Spawn pair over a plain
// TCP connection, COBS-framed per spec.md 6. The connection handshake
// (magic bytes followed by a UUID exchange, before any frame traffic) is
// grounded on internal/ron's Server.handshake, generalized from ron's
// ad hoc dmidecode-derived VM UUID string to a google/uuid value minted
// per connection, carrying identity (SPEC_FULL.md's DOMAIN STACK item on
// google/uuid).
package tcp

import (
	"context"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/sandia-minimega/icdrpc/v2/pkg/transport/cobs"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
)

const magic = "ICD1"

const defaultMaxFrame = 1 << 20

// Conn adapts a net.Conn into wire.Tx, wire.Rx, and wire.Spawn.
type Conn struct {
	nc  net.Conn
	acc *cobs.Accumulator

	localID uuid.UUID
	peerID  uuid.UUID
}

// LocalID is this end's connection identity, minted fresh by Dial/Accept.
func (c *Conn) LocalID() uuid.UUID { return c.localID }

// PeerID is the identity the other end presented during the handshake.
func (c *Conn) PeerID() uuid.UUID { return c.peerID }

// Dial connects to addr and performs the magic-byte-plus-UUID handshake
// before returning, mirroring internal/ron's read-until-magic loop.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	local, peer, err := handshakeClient(nc)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &Conn{nc: nc, acc: cobs.NewAccumulator(defaultMaxFrame), localID: local, peerID: peer}, nil
}

// Accept performs the server side of the handshake on an already-accepted
// connection.
func Accept(nc net.Conn) (*Conn, error) {
	local, peer, err := handshakeServer(nc)
	if err != nil {
		return nil, err
	}
	return &Conn{nc: nc, acc: cobs.NewAccumulator(defaultMaxFrame), localID: local, peerID: peer}, nil
}

func handshakeClient(nc net.Conn) (local, peer uuid.UUID, err error) {
	local = uuid.New()
	if _, err = nc.Write(handshakePayload(local)); err != nil {
		return local, uuid.Nil, err
	}
	peer, err = expectMagicAndID(nc)
	return local, peer, err
}

func handshakeServer(nc net.Conn) (local, peer uuid.UUID, err error) {
	peer, err = expectMagicAndID(nc)
	if err != nil {
		return uuid.Nil, peer, err
	}
	local = uuid.New()
	_, err = nc.Write(handshakePayload(local))
	return local, peer, err
}

func handshakePayload(id uuid.UUID) []byte {
	buf := make([]byte, 0, len(magic)+len(id))
	buf = append(buf, magic...)
	buf = append(buf, id[:]...)
	return buf
}

// expectMagicAndID reads a sliding window until it matches magic, the same
// shift-and-read loop internal/ron uses for its "RON" banner, then reads
// the 16 raw bytes immediately following it as the peer's identity.
func expectMagicAndID(nc net.Conn) (uuid.UUID, error) {
	buf := make([]byte, len(magic))
	for string(buf) != magic {
		copy(buf, buf[1:])
		if _, err := nc.Read(buf[len(buf)-1:]); err != nil {
			return uuid.Nil, err
		}
	}
	idBuf := make([]byte, 16)
	if _, err := io.ReadFull(nc, idBuf); err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(idBuf)
}

func (c *Conn) Send(ctx context.Context, header, body []byte) error {
	frame := make([]byte, 0, len(header)+len(body))
	frame = append(frame, header...)
	frame = append(frame, body...)
	return c.SendRaw(ctx, frame)
}

func (c *Conn) SendRaw(ctx context.Context, frame []byte) error {
	encoded := cobs.Encode(frame)
	encoded = append(encoded, 0x00)
	if dl, ok := ctx.Deadline(); ok {
		c.nc.SetWriteDeadline(dl)
	}
	_, err := c.nc.Write(encoded)
	if err != nil {
		return wire.NewTxError(classifyNetErr(err), err)
	}
	return nil
}

func (c *Conn) SendLogStr(ctx context.Context, msg string) error {
	return c.SendRaw(ctx, []byte(msg))
}

func (c *Conn) WaitConnection(ctx context.Context) error {
	return nil
}

// Receive reads and COBS-decodes frames from the connection, buffering
// internally via Accumulator since TCP delivers an arbitrary byte stream
// rather than message-sized chunks.
func (c *Conn) Receive(ctx context.Context, buf []byte) ([]byte, error) {
	chunk := make([]byte, 4096)
	for {
		if dl, ok := ctx.Deadline(); ok {
			c.nc.SetReadDeadline(dl)
		}
		n, err := c.nc.Read(chunk)
		if n > 0 {
			frames, ferr := c.acc.Feed(chunk[:n])
			if len(frames) > 0 {
				if len(frames[0]) > cap(buf) {
					return nil, wire.NewRxError(wire.RxMessageTooLarge, errFrameTooBig)
				}
				return buf[:copy(buf[:cap(buf)], frames[0])], nil
			}
			if ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			return nil, wire.NewRxError(classifyRxErr(err), err)
		}
	}
}

func (c *Conn) Spawn(fn func(context.Context)) error {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		fn(ctx)
	}()
	return nil
}

func (c *Conn) Close() error { return c.nc.Close() }

func classifyNetErr(err error) wire.TxErrorKind {
	if err == io.EOF {
		return wire.TxConnectionClosed
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return wire.TxTimeout
	}
	return wire.TxOther
}

func classifyRxErr(err error) wire.RxErrorKind {
	if err == io.EOF {
		return wire.RxConnectionClosed
	}
	return wire.RxOther
}
