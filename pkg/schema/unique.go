package schema

import "github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"

// Unique reduces a set of root schema Nodes (and anything they reach
// transitively through struct fields, enum variants, options, sequences,
// tuples, and maps) to a list of distinct *named* types, using structural
// equality rather than pointer identity (spec.md 4.1).
//
// The reference implementation computes an upper bound on the number of
// distinct named types by recursive counting, pre-allocates a fixed array
// of that size, and fills it in a second pass -- a dance that exists only
// to avoid heap allocation on a microcontroller. This implementation runs
// on the host and the device's own dispatcher setup, both of which have a
// heap, so it collects directly into a growable slice; see DESIGN.md for
// this Open Question resolution.
func Unique(roots ...*Node) []*Node {
	var out []*Node
	for _, r := range roots {
		collect(r, &out)
	}
	return out
}

func collect(n *Node, out *[]*Node) {
	if n == nil {
		return
	}

	if !n.Kind.primitive() && n.Name != "" {
		if !containsStructural(*out, n) {
			*out = append(*out, n)
		}
	}

	switch n.Kind {
	case KindOption, KindSeq, KindNewtypeStruct, KindNewtypeVariant:
		collect(n.Elem, out)
	case KindMap:
		collect(n.Key, out)
		collect(n.Val, out)
	case KindTuple, KindTupleStruct, KindTupleVariant:
		for _, c := range n.Tuple {
			collect(c, out)
		}
	case KindStruct, KindStructVariant:
		for _, f := range n.Fields {
			collect(f.Type, out)
		}
	case KindEnum:
		for _, v := range n.Variants {
			collect(v.Type, out)
		}
	}
}

// containsStructural reports whether set already holds a Node that is
// structurally equal to n (same name, same kind, same shape), regardless
// of pointer identity.
func containsStructural(set []*Node, n *Node) bool {
	for _, existing := range set {
		if structuralEqual(existing, n) {
			return true
		}
	}
	return false
}

func structuralEqual(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Name != b.Name || a.Kind != b.Kind {
		return false
	}
	if !structuralEqual(a.Elem, b.Elem) || !structuralEqual(a.Key, b.Key) || !structuralEqual(a.Val, b.Val) {
		return false
	}
	if len(a.Tuple) != len(b.Tuple) {
		return false
	}
	for i := range a.Tuple {
		if !structuralEqual(a.Tuple[i], b.Tuple[i]) {
			return false
		}
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || !structuralEqual(a.Fields[i].Type, b.Fields[i].Type) {
			return false
		}
	}
	if len(a.Variants) != len(b.Variants) {
		return false
	}
	for i := range a.Variants {
		if a.Variants[i].Name != b.Variants[i].Name || !structuralEqual(a.Variants[i].Type, b.Variants[i].Type) {
			return false
		}
	}
	return true
}

// MinKeyWidth finds the smallest key width in {1,2,4,8} bytes for which
// folding every key in keys yields no collisions (spec.md 3, 4.1). It
// returns false if even 8 bytes collide, which spec.md treats as an
// unrecoverable build error.
func MinKeyWidth(keys []wirekey.Key) (wirekey.Width, bool) {
	widths := []wirekey.Width{wirekey.Width1, wirekey.Width2, wirekey.Width4, wirekey.Width8}

	for _, w := range widths {
		if noCollisions(keys, w) {
			return w, true
		}
	}
	return 0, false
}

func noCollisions(keys []wirekey.Key, w wirekey.Width) bool {
	switch w {
	case wirekey.Width1:
		seen := make(map[wirekey.Key1]struct{}, len(keys))
		for _, k := range keys {
			f := wirekey.FromKey1FromKey8(k)
			if _, dup := seen[f]; dup {
				return false
			}
			seen[f] = struct{}{}
		}
	case wirekey.Width2:
		seen := make(map[wirekey.Key2]struct{}, len(keys))
		for _, k := range keys {
			f := wirekey.FromKey2FromKey8(k)
			if _, dup := seen[f]; dup {
				return false
			}
			seen[f] = struct{}{}
		}
	case wirekey.Width4:
		seen := make(map[wirekey.Key4]struct{}, len(keys))
		for _, k := range keys {
			f := wirekey.FromKey4(k)
			if _, dup := seen[f]; dup {
				return false
			}
			seen[f] = struct{}{}
		}
	case wirekey.Width8:
		seen := make(map[wirekey.Key]struct{}, len(keys))
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				return false
			}
			seen[k] = struct{}{}
		}
	}
	return true
}
