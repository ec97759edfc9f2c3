package wirekey

import "fmt"

// Width is the tag of a VarKey / VarSeq: how many bytes it occupies on
// the wire.
type Width byte

const (
	Width1 Width = iota
	Width2
	Width4
	Width8
)

func (w Width) String() string {
	switch w {
	case Width1:
		return "1"
	case Width2:
		return "2"
	case Width4:
		return "4"
	case Width8:
		return "8"
	default:
		return fmt.Sprintf("Width(%d)", byte(w))
	}
}

// Bytes returns how many bytes a value of this width occupies on the wire.
func (w Width) Bytes() int {
	switch w {
	case Width1:
		return 1
	case Width2:
		return 2
	case Width4:
		return 4
	case Width8:
		return 8
	default:
		panic(fmt.Sprintf("wirekey: invalid width %d", byte(w)))
	}
}

// VarKey is a tagged union over Key1/Key2/Key4/Key8, the key half of
// VarHeader (spec.md 3).
type VarKey struct {
	width Width
	k1    Key1
	k2    Key2
	k4    Key4
	k8    Key
}

// NewVarKey1/2/4/8 construct a VarKey of the given width.
func NewVarKey1(k Key1) VarKey { return VarKey{width: Width1, k1: k} }
func NewVarKey2(k Key2) VarKey { return VarKey{width: Width2, k2: k} }
func NewVarKey4(k Key4) VarKey { return VarKey{width: Width4, k4: k} }
func NewVarKey8(k Key) VarKey  { return VarKey{width: Width8, k8: k} }

// Kind reports the current width of the key.
func (v VarKey) Kind() Width { return v.width }

// Key8 returns the underlying full key when the VarKey was constructed at
// Width8; it is the caller's job to check Kind() first if that matters.
// Narrower VarKeys cannot be widened back, so this only succeeds for
// VarKeys that were never shrunk.
func (v VarKey) Key8() (Key, bool) {
	if v.width != Width8 {
		return Key{}, false
	}
	return v.k8, true
}

// ShrinkTo narrows v to kind, folding down. Widening is a no-op: a key
// can never become wider than it was derived, only narrower (spec.md
// 3, VarKey.shrink_to).
func (v VarKey) ShrinkTo(kind Width) VarKey {
	for v.width > kind {
		switch v.width {
		case Width8:
			v = VarKey{width: Width4, k4: FromKey4(v.k8)}
		case Width4:
			v = VarKey{width: Width2, k2: FromKey2(v.k4)}
		case Width2:
			v = VarKey{width: Width1, k1: FromKey1(v.k2)}
		default:
			return v
		}
	}
	return v
}

// foldTo1/2/4 express v (whatever its width) as the narrower type,
// folding as many times as needed.
func (v VarKey) foldTo1() Key1 {
	switch v.width {
	case Width1:
		return v.k1
	case Width2:
		return FromKey1(v.k2)
	case Width4:
		return FromKey1FromKey4(v.k4)
	default:
		return FromKey1FromKey8(v.k8)
	}
}

func (v VarKey) foldTo2() Key2 {
	switch v.width {
	case Width2:
		return v.k2
	case Width4:
		return FromKey2(v.k4)
	case Width8:
		return FromKey2FromKey8(v.k8)
	default:
		panic("wirekey: cannot widen Key1 to Key2")
	}
}

func (v VarKey) foldTo4() Key4 {
	switch v.width {
	case Width4:
		return v.k4
	case Width8:
		return FromKey4(v.k8)
	default:
		panic("wirekey: cannot widen below Key4 to Key4")
	}
}

// Equal implements the cross-width equality rule from spec.md 3:
// "Equality between two keys of different widths compares by folding
// the larger to the smaller."
func (v VarKey) Equal(o VarKey) bool {
	width := v.width
	if o.width < width {
		width = o.width
	}
	switch width {
	case Width1:
		return v.foldTo1() == o.foldTo1()
	case Width2:
		return v.foldTo2() == o.foldTo2()
	case Width4:
		return v.foldTo4() == o.foldTo4()
	default:
		return v.k8 == o.k8
	}
}

// Bytes returns the wire representation of the key in its current width,
// preserving the source byte order (spec.md 6).
func (v VarKey) Bytes() []byte {
	switch v.width {
	case Width1:
		return v.k1[:]
	case Width2:
		return v.k2[:]
	case Width4:
		return v.k4[:]
	default:
		return v.k8[:]
	}
}
