// Package schema derives a structural description of a Go type, suitable
// for folding into a wire key alongside its path (see pkg/wirekey). It is
// the Go stand-in for a compile-time schema reflection macro: Go has no
// such macro, so the walk happens once per type at registration time and
// the result is memoized (see cache.go).
package schema

import (
	"fmt"
	"reflect"
	"sort"
)

// Kind identifies the shape of a schema Node. The numeric values are part
// of the hash input (see hash.go) and must never be reassigned once a
// wire deployment depends on them.
type Kind byte

const (
	KindBool Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindChar
	KindString
	KindByteArray
	KindOption
	KindUnit
	KindUnitStruct
	KindUnitVariant
	KindNewtypeStruct
	KindNewtypeVariant
	KindSeq
	KindTuple
	KindTupleStruct
	KindTupleVariant
	KindMap
	KindStruct
	KindStructVariant
	KindEnum
)

func (k Kind) primitive() bool {
	return k <= KindByteArray
}

// Field is a named, ordered member of a struct-shaped Node.
type Field struct {
	Name string
	Type *Node
}

// Variant is a named, ordered member of an enum-shaped Node.
type Variant struct {
	Name string
	Type *Node
}

// Node is one point in a structural schema tree. Composite kinds populate
// Elem, Key and Val, Fields, Variants, or Tuple depending on Kind;
// primitive and unit kinds populate none of them.
type Node struct {
	// Name is empty for primitives (they never appear as standalone named
	// types on the wire) and for unnamed shapes (options, sequences, maps,
	// anonymous structs); otherwise it is the import path and name of the
	// declared Go type.
	Name string
	Kind Kind

	Elem     *Node     // Option, Seq, NewtypeStruct, NewtypeVariant
	Key      *Node     // Map key
	Val      *Node     // Map value
	Tuple    []*Node   // Tuple, TupleStruct, TupleVariant
	Fields   []Field   // Struct, StructVariant
	Variants []Variant // Enum
}

// Schema is implemented by types with a hand-written structural
// description, most commonly sum types (Go has no native enum with
// payloads, so user ICD types that need Enum/Variant semantics implement
// this directly instead of relying on reflection).
type Schema interface {
	WireSchema() *Node
}

// Of derives the structural Node for v's type, consulting the package
// cache first. v may be a zero value; only its type is inspected.
func Of(v interface{}) *Node {
	return OfType(reflect.TypeOf(v))
}

// OfType derives the structural Node for t, consulting the package cache.
func OfType(t reflect.Type) *Node {
	if n, ok := cacheGet(t); ok {
		return n
	}
	n := derive(t, make(map[reflect.Type]*Node))
	cachePut(t, n)
	return n
}

func derive(t reflect.Type, seen map[reflect.Type]*Node) *Node {
	if t == nil {
		return &Node{Kind: KindUnit}
	}

	if n, ok := seen[t]; ok {
		return n
	}

	if t.Implements(schemaType) {
		zero := reflect.Zero(t)
		return zero.Interface().(Schema).WireSchema()
	}
	if reflect.PointerTo(t).Implements(schemaType) {
		zero := reflect.New(t)
		return zero.Interface().(Schema).WireSchema()
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Node{Kind: KindBool}
	case reflect.Int8:
		return &Node{Kind: KindI8}
	case reflect.Int16:
		return &Node{Kind: KindI16}
	case reflect.Int32:
		return &Node{Kind: KindI32}
	case reflect.Int, reflect.Int64:
		return &Node{Kind: KindI64}
	case reflect.Uint8:
		return &Node{Kind: KindU8}
	case reflect.Uint16:
		return &Node{Kind: KindU16}
	case reflect.Uint32:
		return &Node{Kind: KindU32}
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return &Node{Kind: KindU64}
	case reflect.Float32:
		return &Node{Kind: KindF32}
	case reflect.Float64:
		return &Node{Kind: KindF64}
	case reflect.String:
		return &Node{Kind: KindString}
	case reflect.Struct:
		if t.NumField() == 0 {
			return &Node{Name: typeName(t), Kind: KindUnitStruct}
		}
		node := &Node{Name: typeName(t), Kind: KindStruct}
		seen[t] = node
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			name := f.Name
			if tag := f.Tag.Get("wire"); tag != "" {
				name = tag
			}
			node.Fields = append(node.Fields, Field{Name: name, Type: derive(f.Type, seen)})
		}
		return node
	case reflect.Ptr:
		return &Node{Kind: KindOption, Elem: derive(t.Elem(), seen)}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Node{Kind: KindByteArray}
		}
		return &Node{Kind: KindSeq, Elem: derive(t.Elem(), seen)}
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Node{Kind: KindByteArray}
		}
		node := &Node{Name: typeName(t), Kind: KindTupleStruct}
		for i := 0; i < t.Len(); i++ {
			node.Tuple = append(node.Tuple, derive(t.Elem(), seen))
		}
		return node
	case reflect.Map:
		return &Node{
			Kind: KindMap,
			Key:  derive(t.Key(), seen),
			Val:  derive(t.Elem(), seen),
		}
	default:
		panic(fmt.Sprintf("schema: unsupported kind %v for type %v; implement schema.Schema", t.Kind(), t))
	}
}

func typeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

var schemaType = reflect.TypeOf((*Schema)(nil)).Elem()

// SortedFieldNames is a convenience for tests and for the schema-dump ICD
// endpoint, which wants deterministic field ordering for display even
// though the hash itself is declaration-order sensitive, not sorted.
func (n *Node) SortedFieldNames() []string {
	names := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
