// Package wirekey implements the compile-time-derived wire identifiers
// described in spec.md 3 and 4.1: an 8-byte Key folded deterministically
// down to 4, 2, or 1 bytes, plus the tagged-union VarKey used on the wire.
package wirekey

// Key is the full 8-byte wire identifier for a (path, structural schema)
// pair. Byte order is whatever schema.Digest produced; Key never
// reinterprets the bytes as an integer, it only folds and compares them.
type Key [8]byte

// Key4 is Key folded by XORing its two 4-byte halves.
type Key4 [4]byte

// Key2 is Key4 folded by XORing its two 2-byte halves.
type Key2 [2]byte

// Key1 is Key2 folded by XORing its two bytes.
type Key1 [1]byte

// FromKey4 folds an 8-byte Key down to 4 bytes: out[i] = k[i] ^ k[i+4].
func FromKey4(k Key) Key4 {
	var out Key4
	for i := range out {
		out[i] = k[i] ^ k[i+4]
	}
	return out
}

// FromKey2FromKey8 folds an 8-byte Key directly down to 2 bytes.
func FromKey2FromKey8(k Key) Key2 {
	return FromKey2(FromKey4(k))
}

// FromKey2 folds a Key4 down to 2 bytes: out[i] = k[i] ^ k[i+2].
func FromKey2(k Key4) Key2 {
	var out Key2
	for i := range out {
		out[i] = k[i] ^ k[i+2]
	}
	return out
}

// FromKey1FromKey8 folds an 8-byte Key directly down to 1 byte.
func FromKey1FromKey8(k Key) Key1 {
	return FromKey1(FromKey2FromKey8(k))
}

// FromKey1FromKey4 folds a Key4 directly down to 1 byte.
func FromKey1FromKey4(k Key4) Key1 {
	return FromKey1(FromKey2(k))
}

// FromKey1 folds a Key2 down to 1 byte: out[0] = k[0] ^ k[1].
func FromKey1(k Key2) Key1 {
	return Key1{k[0] ^ k[1]}
}
