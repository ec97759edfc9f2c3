package dispatch

import (
	"context"
	"sync"

	"github.com/sandia-minimega/icdrpc/v2/pkg/codec"
	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wire"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wireheader"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Sender wraps a wire.Tx behind a mutex so concurrently-running handlers
// (spawned ones in particular) can't interleave two frames on the wire
// (spec.md 5).
type Sender struct {
	mu       sync.Mutex
	tx       wire.Tx
	keyWidth wirekey.Width
}

func NewSender(tx wire.Tx, keyWidth wirekey.Width) *Sender {
	return &Sender{tx: tx, keyWidth: keyWidth}
}

// Send writes one frame with key narrowed to the sender's negotiated
// width and the given sequence number.
func (s *Sender) Send(ctx context.Context, key wirekey.VarKey, seq wirekey.VarSeq, body []byte) error {
	h := wireheader.VarHeader{Key: key.ShrinkTo(s.keyWidth), SeqNo: seq}
	hdrBuf := make([]byte, h.EncodedLen())
	written, _, ok := h.WriteToSlice(hdrBuf)
	if !ok {
		return errHeaderTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx.Send(ctx, written, body)
}

// SendWireError reports a protocol-level failure on the reserved error
// key (spec.md 4.6, 7). Errors reporting errors are swallowed by the
// caller (the run loop discards them and moves on).
func (s *Sender) SendWireError(ctx context.Context, we icd.WireError, seq wirekey.VarSeq, c codec.Codec) error {
	body, err := c.Marshal(we)
	if err != nil {
		return err
	}
	return s.Send(ctx, wirekey.NewVarKey8(icd.ErrorKey), seq, body)
}

// PublishTopic sends a one-way message. Topic publishes always use
// sequence number zero: there is no request to correlate them with
// (spec.md 4.5).
func (s *Sender) PublishTopic(ctx context.Context, key wirekey.VarKey, seqWidth wirekey.Width, body []byte) error {
	return s.Send(ctx, key, zeroSeq(seqWidth), body)
}

func zeroSeq(w wirekey.Width) wirekey.VarSeq {
	switch w {
	case wirekey.Width1:
		return wirekey.NewVarSeq1(0)
	case wirekey.Width2:
		return wirekey.NewVarSeq2(0)
	default:
		return wirekey.NewVarSeq4(0)
	}
}
