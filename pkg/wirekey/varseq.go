package wirekey

// VarSeq is a tagged union over Seq1(uint8)/Seq2(uint16)/Seq4(uint32), the
// sequence-number half of VarHeader (spec.md 3). Unlike VarKey, two
// VarSeqs of different widths are never considered equal, even if their
// numeric value matches.
type VarSeq struct {
	width Width
	v     uint32
}

func NewVarSeq1(v uint8) VarSeq  { return VarSeq{width: Width1, v: uint32(v)} }
func NewVarSeq2(v uint16) VarSeq { return VarSeq{width: Width2, v: uint32(v)} }
func NewVarSeq4(v uint32) VarSeq { return VarSeq{width: Width4, v: v} }

// Kind reports the current width of the sequence number.
func (s VarSeq) Kind() Width { return s.width }

// Uint32 returns the numeric value, whatever the underlying width.
func (s VarSeq) Uint32() uint32 { return s.v }

// Resize truncates or zero-extends s to kind (spec.md 3, VarSeq.resize).
func (s VarSeq) Resize(kind Width) VarSeq {
	switch kind {
	case Width1:
		return VarSeq{width: Width1, v: uint32(uint8(s.v))}
	case Width2:
		return VarSeq{width: Width2, v: uint32(uint16(s.v))}
	case Width4:
		return VarSeq{width: Width4, v: s.v}
	default:
		panic("wirekey: invalid VarSeq width")
	}
}

// Equal requires identical width and value.
func (s VarSeq) Equal(o VarSeq) bool {
	return s.width == o.width && s.v == o.v
}
