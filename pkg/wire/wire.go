// Package wire defines the transport-neutral contracts a concrete byte
// carrier (USB bulk, UART, TCP, in-process channel) must implement so that
// pkg/dispatch and pkg/hostmux never depend on transport details
// (spec.md 4.3).
package wire

import "context"

// TxErrorKind classifies a send failure. ConnectionClosed and Timeout mean
// the connection can no longer carry frames; Other is a failure of a
// single send. pkg/hostmux's out_worker stops on any send error;
// pkg/dispatch's Run does not inspect send errors.
type TxErrorKind int

const (
	TxOther TxErrorKind = iota
	TxConnectionClosed
	TxTimeout
)

// TxError is any error returned by Tx that can classify itself.
type TxError interface {
	error
	Kind() TxErrorKind
}

// RxErrorKind classifies a receive failure. In pkg/dispatch's run loop
// only ConnectionClosed is fatal; oversize frames are dropped and the loop
// continues. pkg/hostmux's in_worker drops oversize frames and stops on
// any other receive error.
type RxErrorKind int

const (
	RxOther RxErrorKind = iota
	RxConnectionClosed
	RxMessageTooLarge
)

// RxError is any error returned by Rx that can classify itself.
type RxError interface {
	error
	Kind() RxErrorKind
}

// Tx is the outbound half of a transport. Implementations must be safe to
// call from multiple goroutines only if the caller does not already
// serialize access (pkg/dispatch's Sender holds its own mutex, per
// spec.md 5).
type Tx interface {
	// Send writes one framed message: header bytes followed by body
	// bytes, as a single logical frame.
	Send(ctx context.Context, header, body []byte) error
	// SendRaw writes bytes that the caller has already framed in full,
	// including the header. Behavior on malformed input is undefined
	// (spec.md 9).
	SendRaw(ctx context.Context, frame []byte) error
	// SendLogStr sends a preformatted string on the reserved logging
	// topic.
	SendLogStr(ctx context.Context, msg string) error
	// WaitConnection blocks until the transport believes it has an
	// active peer.
	WaitConnection(ctx context.Context) error
}

// Rx is the inbound half of a transport.
type Rx interface {
	// Receive reads exactly one framed message into buf, returning the
	// slice of buf that holds it. Implementations own framing: USB uses
	// packet boundaries, byte streams use COBS (spec.md 4.3, 6).
	Receive(ctx context.Context, buf []byte) ([]byte, error)
}

// Spawn is the capability to run a handler to completion independently of
// the dispatcher's receive loop (spec.md 4.4, "spawn" flavor).
type Spawn interface {
	// Spawn runs fn in its own goroutine/task. It returns an error if the
	// executor could not accept more work (WireError.FailedToSpawn).
	Spawn(fn func(context.Context)) error
}

// AsTxKind extracts a TxErrorKind from err, defaulting to TxOther if err
// does not implement TxError.
func AsTxKind(err error) TxErrorKind {
	if te, ok := err.(TxError); ok {
		return te.Kind()
	}
	return TxOther
}

// AsRxKind extracts an RxErrorKind from err, defaulting to RxOther if err
// does not implement RxError.
func AsRxKind(err error) RxErrorKind {
	if re, ok := err.(RxError); ok {
		return re.Kind()
	}
	return RxOther
}
