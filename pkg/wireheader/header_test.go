package wireheader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

func TestWireFormatVectors(t *testing.T) {
	cases := []struct {
		name string
		h    VarHeader
		want []byte
	}{
		{
			name: "key1/seq1 zero",
			h:    VarHeader{Key: wirekey.NewVarKey1(wirekey.Key1{0x00}), SeqNo: wirekey.NewVarSeq1(0x00)},
			want: []byte{0x00, 0x00, 0x00},
		},
		{
			name: "key1/seq1",
			h:    VarHeader{Key: wirekey.NewVarKey1(wirekey.Key1{0x01}), SeqNo: wirekey.NewVarSeq1(0x02)},
			want: []byte{0x00, 0x01, 0x02},
		},
		{
			name: "key2/seq1",
			h:    VarHeader{Key: wirekey.NewVarKey2(wirekey.Key2{0x42, 0xAF}), SeqNo: wirekey.NewVarSeq1(0x02)},
			want: []byte{0b01_00_0000, 0x42, 0xAF, 0x02},
		},
		{
			name: "key1/seq2",
			h:    VarHeader{Key: wirekey.NewVarKey1(wirekey.Key1{0x01}), SeqNo: wirekey.NewVarSeq2(0x42AF)},
			want: []byte{0b00_01_0000, 0x01, 0xAF, 0x42},
		},
		{
			name: "key8/seq4",
			h: VarHeader{
				Key:   wirekey.NewVarKey8(wirekey.Key{0x12, 0x23, 0x34, 0x45, 0x56, 0x67, 0x78, 0x89}),
				SeqNo: wirekey.NewVarSeq4(0x42AFAABB),
			},
			want: []byte{
				0b11_10_0000,
				0x12, 0x23, 0x34, 0x45, 0x56, 0x67, 0x78, 0x89,
				0xBB, 0xAA, 0xAF, 0x42,
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := make([]byte, 1+8+4)
			written, _, ok := c.h.WriteToSlice(buf)
			require.True(t, ok)
			require.Equal(t, c.want, written)

			decoded, remain, ok := TakeFromSlice(written)
			require.True(t, ok)
			require.Empty(t, remain)
			require.True(t, c.h.Equal(decoded))
		})
	}
}

func TestWriteToSliceTooShort(t *testing.T) {
	h := VarHeader{Key: wirekey.NewVarKey8(wirekey.Key{}), SeqNo: wirekey.NewVarSeq4(0)}
	buf := make([]byte, 3)
	_, _, ok := h.WriteToSlice(buf)
	require.False(t, ok)
}

func TestTakeFromSliceRejectsNonZeroVersion(t *testing.T) {
	buf := []byte{0b0000_0001, 0x00, 0x00}
	_, _, ok := TakeFromSlice(buf)
	require.False(t, ok)
}

func TestTakeFromSliceRejectsReservedSeqWidth(t *testing.T) {
	buf := []byte{0b00_11_0000, 0x00}
	_, _, ok := TakeFromSlice(buf)
	require.False(t, ok)
}

func TestTakeFromSliceRejectsTruncated(t *testing.T) {
	buf := []byte{0b11_10_0000, 0x01, 0x02}
	_, _, ok := TakeFromSlice(buf)
	require.False(t, ok)
}
