// Package types implements the compiler's type registry: the set of
// primitive types (sized unsigned integers, the generic int, bytes,
// sized bytes[N], any, addr, bigint) and user-defined struct/box
// types, along with the CanHold / CanHoldWithCast compatibility
// predicates used throughout semantic analysis.
package types

import "fmt"

// Type is the interface every type value in the system implements.
type Type interface {
	// String renders the type the way it appears in surface source,
	// e.g. "int", "bytes[32]", "Item", "box<Item>".
	String() string
	// Size is the type's width in bytes as laid out in a scratch slot
	// or box. Types with no fixed size (unsized bytes) return -1.
	Size() int
	// CanHold reports whether a value of type `other` may be assigned
	// directly (without an explicit cast) to a destination of this type.
	CanHold(other Type) bool
	// CanHoldWithCast reports whether a value of type `other` could be
	// assigned to a destination of this type given an explicit Cast
	// (and, for non-int/non-struct destinations, Rpad) expression.
	CanHoldWithCast(other Type) bool
}

// byteSized is implemented by every type whose AVM representation is
// a byte string (BytesType, BigIntType, AddrType), letting CanHold be
// expressed once in terms of the effective declared length.
type byteSized interface {
	byteSize() *int
}

// ---- AnyType ----

// AnyType is assignable to and from anything.
type AnyType struct{}

func (AnyType) String() string                { return "any" }
func (AnyType) Size() int                     { return -1 }
func (AnyType) CanHold(Type) bool             { return true }
func (AnyType) CanHoldWithCast(other Type) bool { return true }

// ---- IntType / UIntType ----

// IntType is a signed-in-name, unsigned-in-practice integer occupying
// Width bytes when materialized as bytes (e.g. a struct field or a
// router return value). Width == 8 is the plain "int" type; any value
// fits in it regardless of how it was produced. Width < 8 is a
// narrower, explicitly cast width.
type IntType struct {
	Width int
}

// NewIntType returns the plain, 8-byte "int" type.
func NewIntType() IntType { return IntType{Width: 8} }

// NewUIntType returns a narrower integer type forcing the given byte
// width (1..8).
func NewUIntType(width int) IntType { return IntType{Width: width} }

// IsPlainInt reports whether this is the unconstrained "int" type
// rather than an explicitly narrowed width.
func (t IntType) IsPlainInt() bool { return t.Width == 8 }

func (t IntType) String() string {
	if t.IsPlainInt() {
		return "int"
	}
	return fmt.Sprintf("uint%d", t.Width)
}

func (t IntType) Size() int { return t.Width }

func (t IntType) CanHold(other Type) bool {
	if _, ok := other.(AnyType); ok {
		return true
	}
	o, ok := other.(IntType)
	if !ok {
		return false
	}
	if t.IsPlainInt() {
		// The generic int can hold a value produced for any width.
		return true
	}
	// A narrowed width only accepts an exact match without a cast.
	return o.Width == t.Width
}

func (t IntType) CanHoldWithCast(other Type) bool {
	_, ok := other.(IntType)
	return ok
}

// ---- BytesType ----

// BytesType is a byte string, optionally of a known fixed Size. A nil
// Size means "unknown/any length".
type BytesType struct {
	KnownSize *int
}

// NewBytesType returns the unsized "bytes" type.
func NewBytesType() BytesType { return BytesType{} }

// NewSizedBytesType returns "bytes[n]".
func NewSizedBytesType(n int) BytesType { return BytesType{KnownSize: &n} }

func (t BytesType) String() string {
	if t.KnownSize == nil {
		return "bytes"
	}
	return fmt.Sprintf("bytes[%d]", *t.KnownSize)
}

func (t BytesType) Size() int {
	if t.KnownSize == nil {
		return -1
	}
	return *t.KnownSize
}

func (t BytesType) byteSize() *int { return t.KnownSize }

func (t BytesType) CanHold(other Type) bool {
	return bytesCanHold(t.KnownSize, other)
}

func (t BytesType) CanHoldWithCast(other Type) bool {
	return isByteFamily(other)
}

func bytesCanHold(dstSize *int, other Type) bool {
	if _, ok := other.(AnyType); ok {
		return true
	}
	bs, ok := other.(byteSized)
	if !ok {
		return false
	}
	if dstSize == nil {
		return true
	}
	srcSize := bs.byteSize()
	if srcSize == nil {
		return false
	}
	return *srcSize <= *dstSize
}

func isByteFamily(t Type) bool {
	_, ok := t.(byteSized)
	return ok
}

// ---- BigIntType ----

// BigIntType is an opaque, variable-length big-endian integer encoded
// as bytes. It behaves like unsized bytes for compatibility purposes
// but keeps its own identity for diagnostics.
type BigIntType struct{}

func (BigIntType) String() string      { return "bigint" }
func (BigIntType) Size() int           { return -1 }
func (BigIntType) byteSize() *int      { return nil }
func (t BigIntType) CanHold(other Type) bool {
	return bytesCanHold(nil, other)
}
func (BigIntType) CanHoldWithCast(other Type) bool { return isByteFamily(other) }

// ---- AddrType ----

// AddrType is a fixed-length (32 byte) account address, an opaque
// subtype of bytes.
type AddrType struct{}

const AddrSize = 32

func (AddrType) String() string { return "addr" }
func (AddrType) Size() int      { return AddrSize }
func (AddrType) byteSize() *int { n := AddrSize; return &n }
func (t AddrType) CanHold(other Type) bool {
	n := AddrSize
	return bytesCanHold(&n, other)
}
func (AddrType) CanHoldWithCast(other Type) bool { return isByteFamily(other) }

// ---- StructType ----

// StructField describes one field of a struct's flat byte layout.
type StructField struct {
	Name   string
	Type   Type
	Offset int
	Size   int
}

// StructType is a flat byte layout with fixed per-field offsets
// computed as the prefix sum of prior field sizes.
type StructType struct {
	Name      string
	Fields    []StructField
	fieldIdx  map[string]int
	TotalSize int
}

// NewStructType creates an empty struct type ready to receive fields
// via AddField, in declaration order.
func NewStructType(name string) *StructType {
	return &StructType{Name: name, fieldIdx: map[string]int{}}
}

// AddField appends a field to the struct's layout, computing its
// offset from the running total of prior field sizes.
func (s *StructType) AddField(name string, fieldType Type) error {
	if _, exists := s.fieldIdx[name]; exists {
		return fmt.Errorf("duplicate field %q in struct %s", name, s.Name)
	}
	size := fieldType.Size()
	if size < 0 {
		return fmt.Errorf("field %q of struct %s has no fixed size (%s)", name, s.Name, fieldType)
	}
	field := StructField{Name: name, Type: fieldType, Offset: s.TotalSize, Size: size}
	s.fieldIdx[name] = len(s.Fields)
	s.Fields = append(s.Fields, field)
	s.TotalSize += size
	return nil
}

// Field looks up a field by name.
func (s *StructType) Field(name string) (StructField, bool) {
	i, ok := s.fieldIdx[name]
	if !ok {
		return StructField{}, false
	}
	return s.Fields[i], true
}

func (s *StructType) String() string { return s.Name }
func (s *StructType) Size() int      { return s.TotalSize }

func (s *StructType) CanHold(other Type) bool {
	if _, ok := other.(AnyType); ok {
		return true
	}
	o, ok := other.(*StructType)
	return ok && o.Name == s.Name
}

// CanHoldWithCast is always false: there is no legal Cast between two
// distinct struct layouts.
func (s *StructType) CanHoldWithCast(Type) bool { return false }

// ---- BoxType ----

// BoxType is a reference to a named blob of external storage sharing
// a struct's layout.
type BoxType struct {
	Struct *StructType
}

func (b BoxType) String() string { return fmt.Sprintf("box<%s>", b.Struct.Name) }
func (b BoxType) Size() int      { return b.Struct.Size() }

func (b BoxType) CanHold(other Type) bool {
	if _, ok := other.(AnyType); ok {
		return true
	}
	o, ok := other.(BoxType)
	return ok && o.Struct.Name == b.Struct.Name
}

func (BoxType) CanHoldWithCast(Type) bool { return false }
