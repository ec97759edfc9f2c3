// Package wireheader implements the variable-length frame header described
// in spec.md 4.2 and 6: one discriminant byte, followed by a 1/2/4/8-byte
// key, followed by a 1/2/4-byte little-endian sequence number.
package wireheader

import (
	"encoding/binary"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

const (
	keyOneBits   = 0b00_00_0000
	keyTwoBits   = 0b01_00_0000
	keyFourBits  = 0b10_00_0000
	keyEightBits = 0b11_00_0000
	keyMaskBits  = 0b11_00_0000

	seqOneBits  = 0b00_00_0000
	seqTwoBits  = 0b00_01_0000
	seqFourBits = 0b00_10_0000
	seqMaskBits = 0b00_11_0000

	verZeroBits = 0b00_00_0000
	verMaskBits = 0b00_00_1111
)

// VarHeader is the on-wire header: a variable-width key, a variable-width
// sequence number, and an always-zero version nibble (spec.md 3, 6).
type VarHeader struct {
	Key   wirekey.VarKey
	SeqNo wirekey.VarSeq
}

// Equal compares headers using VarKey's fold-down equality and VarSeq's
// exact (width-sensitive) equality, per spec.md 4.2.
func (h VarHeader) Equal(o VarHeader) bool {
	return h.Key.Equal(o.Key) && h.SeqNo.Equal(o.SeqNo)
}

// EncodedLen returns the number of bytes WriteToSlice will consume for h.
func (h VarHeader) EncodedLen() int {
	return 1 + h.Key.Kind().Bytes() + h.SeqNo.Kind().Bytes()
}

// WriteToSlice encodes h into buf, returning the written prefix and the
// unused remainder. It returns false if buf is too short to hold h.
func (h VarHeader) WriteToSlice(buf []byte) (written, remain []byte, ok bool) {
	need := h.EncodedLen()
	if len(buf) < need {
		return nil, nil, false
	}

	var disc byte
	switch h.Key.Kind() {
	case wirekey.Width1:
		disc = keyOneBits
	case wirekey.Width2:
		disc = keyTwoBits
	case wirekey.Width4:
		disc = keyFourBits
	case wirekey.Width8:
		disc = keyEightBits
	}

	switch h.SeqNo.Kind() {
	case wirekey.Width1:
		disc |= seqOneBits
	case wirekey.Width2:
		disc |= seqTwoBits
	case wirekey.Width4:
		disc |= seqFourBits
	}

	buf[0] = disc
	off := 1
	off += copy(buf[off:], h.Key.Bytes())

	switch h.SeqNo.Kind() {
	case wirekey.Width1:
		buf[off] = byte(h.SeqNo.Uint32())
		off++
	case wirekey.Width2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(h.SeqNo.Uint32()))
		off += 2
	case wirekey.Width4:
		binary.LittleEndian.PutUint32(buf[off:], h.SeqNo.Uint32())
		off += 4
	}

	return buf[:off], buf[off:], true
}

// TakeFromSlice decodes a VarHeader from the front of buf, returning the
// header and the unconsumed remainder. It returns false if buf is
// truncated, the version nibble is non-zero, or the sequence-width bits
// are the reserved 0b11 pattern (spec.md 4.2, 9).
func TakeFromSlice(buf []byte) (h VarHeader, remain []byte, ok bool) {
	if len(buf) < 1 {
		return VarHeader{}, nil, false
	}
	disc := buf[0]
	rest := buf[1:]

	if disc&verMaskBits != verZeroBits {
		return VarHeader{}, nil, false
	}

	var keyWidth int
	switch disc & keyMaskBits {
	case keyOneBits:
		keyWidth = 1
	case keyTwoBits:
		keyWidth = 2
	case keyFourBits:
		keyWidth = 4
	case keyEightBits:
		keyWidth = 8
	}
	if len(rest) < keyWidth {
		return VarHeader{}, nil, false
	}
	keyBytes := rest[:keyWidth]
	rest = rest[keyWidth:]

	var vk wirekey.VarKey
	switch keyWidth {
	case 1:
		vk = wirekey.NewVarKey1(wirekey.Key1{keyBytes[0]})
	case 2:
		vk = wirekey.NewVarKey2(wirekey.Key2{keyBytes[0], keyBytes[1]})
	case 4:
		var k wirekey.Key4
		copy(k[:], keyBytes)
		vk = wirekey.NewVarKey4(k)
	case 8:
		var k wirekey.Key
		copy(k[:], keyBytes)
		vk = wirekey.NewVarKey8(k)
	}

	switch disc & seqMaskBits {
	case seqOneBits:
		if len(rest) < 1 {
			return VarHeader{}, nil, false
		}
		return VarHeader{Key: vk, SeqNo: wirekey.NewVarSeq1(rest[0])}, rest[1:], true
	case seqTwoBits:
		if len(rest) < 2 {
			return VarHeader{}, nil, false
		}
		return VarHeader{Key: vk, SeqNo: wirekey.NewVarSeq2(binary.LittleEndian.Uint16(rest))}, rest[2:], true
	case seqFourBits:
		if len(rest) < 4 {
			return VarHeader{}, nil, false
		}
		return VarHeader{Key: vk, SeqNo: wirekey.NewVarSeq4(binary.LittleEndian.Uint32(rest))}, rest[4:], true
	default:
		// 0b11: reserved, invalid on read.
		return VarHeader{}, nil, false
	}
}
