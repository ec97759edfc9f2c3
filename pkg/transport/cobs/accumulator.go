package cobs

import "github.com/sandia-minimega/icdrpc/v2/pkg/wire"

// Accumulator reassembles COBS-framed messages out of a byte stream that
// may deliver arbitrarily small or large chunks at a time. It is the
// supplemented piece of COBS support the distilled spec never named: a
// raw Read() loop has no notion of "wait for the next 0x00", so every
// byte-stream transport needs one of these (spec.md 6 names the wire
// format; this is the accumulation strategy a server/host must use to
// consume it without unbounded buffering).
type Accumulator struct {
	buf    []byte
	max    int
	failed bool
}

// NewAccumulator creates an Accumulator that rejects any frame whose
// encoded form exceeds maxFrame bytes.
func NewAccumulator(maxFrame int) *Accumulator {
	return &Accumulator{max: maxFrame}
}

// Feed appends chunk to the accumulator's buffer and returns every
// complete decoded frame found in it, in order. If a partial frame
// exceeds the configured maximum, Feed returns an RxError classified as
// RxMessageTooLarge and discards everything buffered so far so the
// accumulator can resynchronize on the next 0x00.
func (a *Accumulator) Feed(chunk []byte) ([][]byte, error) {
	var frames [][]byte

	for _, b := range chunk {
		if a.failed {
			if b == 0 {
				a.buf = a.buf[:0]
				a.failed = false
			}
			continue
		}
		if b == 0 {
			if len(a.buf) > 0 {
				decoded, err := Decode(a.buf)
				a.buf = a.buf[:0]
				if err != nil {
					return frames, wire.NewRxError(wire.RxOther, err)
				}
				frames = append(frames, decoded)
			}
			continue
		}
		a.buf = append(a.buf, b)
		if len(a.buf) > a.max {
			a.failed = true
			a.buf = a.buf[:0]
			return frames, wire.NewRxError(wire.RxMessageTooLarge, errTooLarge)
		}
	}
	return frames, nil
}
