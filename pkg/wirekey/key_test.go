package wirekey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldAssociativity(t *testing.T) {
	k := Key{0x12, 0x23, 0x34, 0x45, 0x56, 0x67, 0x78, 0x89}

	viaKey4 := FromKey1FromKey4(FromKey4(k))
	viaKey2 := FromKey1(FromKey2FromKey8(k))
	direct := FromKey1FromKey8(k)

	require.Equal(t, direct, viaKey4)
	require.Equal(t, direct, viaKey2)
}

func TestVarKeyShrinkOnlyNarrows(t *testing.T) {
	k := Key{1, 2, 3, 4, 5, 6, 7, 8}
	v := NewVarKey8(k)

	shrunk := v.ShrinkTo(Width4)
	require.Equal(t, Width4, shrunk.Kind())
	require.Equal(t, FromKey4(k), shrunk.foldTo4())

	// Widening is a no-op.
	widened := shrunk.ShrinkTo(Width8)
	require.Equal(t, Width4, widened.Kind())
}

func TestVarKeyEqualAcrossWidths(t *testing.T) {
	k := Key{1, 2, 3, 4, 5, 6, 7, 8}
	full := NewVarKey8(k)
	narrow := NewVarKey1(FromKey1FromKey8(k))

	require.True(t, full.Equal(narrow))
	require.True(t, narrow.Equal(full))

	other := NewVarKey8(Key{9, 9, 9, 9, 9, 9, 9, 9})
	require.False(t, full.Equal(other))
}

func TestVarSeqResizeTruncatesAndExtends(t *testing.T) {
	s := NewVarSeq4(0x1234_5678)
	s1 := s.Resize(Width1)
	require.Equal(t, uint32(0x78), s1.Uint32())

	s2 := s1.Resize(Width4)
	require.Equal(t, uint32(0x78), s2.Uint32())
	require.False(t, s.Equal(s2), "different original value must not compare equal after lossy round trip")
}

func TestVarSeqEqualRequiresSameWidth(t *testing.T) {
	a := NewVarSeq1(5)
	b := NewVarSeq2(5)
	require.False(t, a.Equal(b))
}
