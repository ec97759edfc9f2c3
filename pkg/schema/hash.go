package schema

import (
	"hash"
	"hash/fnv"
)

// Digest absorbs a path string followed by a structural schema using
// FNV-1a 64-bit, per spec.md 4.1. The path is always absorbed first; the
// schema traversal is canonical (declaration order, discriminant byte per
// node, names as raw bytes, no dedup).
func Digest(path string, n *Node) [8]byte {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	writeNode(h, n)

	var out [8]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeNode(h hash.Hash64, n *Node) {
	if n == nil {
		h.Write([]byte{byte(KindUnit)})
		return
	}

	h.Write([]byte{byte(n.Kind)})
	if !n.Kind.primitive() {
		h.Write([]byte(n.Name))
	}

	switch n.Kind {
	case KindOption, KindSeq:
		writeNode(h, n.Elem)
	case KindMap:
		writeNode(h, n.Key)
		writeNode(h, n.Val)
	case KindTuple, KindTupleStruct, KindTupleVariant:
		for _, c := range n.Tuple {
			writeNode(h, c)
		}
	case KindStruct, KindStructVariant:
		for _, f := range n.Fields {
			h.Write([]byte(f.Name))
			writeNode(h, f.Type)
		}
	case KindEnum:
		for _, v := range n.Variants {
			h.Write([]byte(v.Name))
			writeNode(h, v.Type)
		}
	case KindNewtypeStruct, KindNewtypeVariant:
		writeNode(h, n.Elem)
	}
}
