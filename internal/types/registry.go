package types

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	sizedBytesPattern = regexp.MustCompile(`^bytes\[(\d+)\]$`)
	uintPattern       = regexp.MustCompile(`^uint([1-8])$`)
	boxPattern        = regexp.MustCompile(`^box<([A-Z][a-zA-Z0-9_]*)>$`)
)

// Registry is the process-scoped (really: per-compilation-unit; see
// DESIGN.md) catalogue of primitive and user-defined struct types. It
// is owned by the compiler driver, not a package-level global, so two
// compiles never share struct definitions.
type Registry struct {
	structs map[string]*StructType
}

// NewRegistry returns an empty registry seeded with no struct
// definitions.
func NewRegistry() *Registry {
	return &Registry{structs: map[string]*StructType{}}
}

// DefineStruct registers a fully-built struct type. Redefinition under
// the same name is an error.
func (r *Registry) DefineStruct(s *StructType) error {
	if _, exists := r.structs[s.Name]; exists {
		return fmt.Errorf("struct %q already defined", s.Name)
	}
	r.structs[s.Name] = s
	return nil
}

// GetStruct looks up a previously defined struct type by name.
func (r *Registry) GetStruct(name string) (*StructType, bool) {
	s, ok := r.structs[name]
	return s, ok
}

// GetTypeInstance resolves a surface-language type name -- "int",
// "uint3", "bytes", "bytes[32]", "bigint", "addr", "any", a struct
// name, or "box<StructName>" -- to its Type value.
func (r *Registry) GetTypeInstance(name string) (Type, error) {
	switch name {
	case "int":
		return NewIntType(), nil
	case "bytes":
		return NewBytesType(), nil
	case "bigint":
		return BigIntType{}, nil
	case "addr":
		return AddrType{}, nil
	case "any":
		return AnyType{}, nil
	}

	if m := uintPattern.FindStringSubmatch(name); m != nil {
		width, _ := strconv.Atoi(m[1])
		return NewUIntType(width), nil
	}

	if m := sizedBytesPattern.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return NewSizedBytesType(n), nil
	}

	if m := boxPattern.FindStringSubmatch(name); m != nil {
		s, ok := r.GetStruct(m[1])
		if !ok {
			return nil, fmt.Errorf("unknown struct %q", m[1])
		}
		return BoxType{Struct: s}, nil
	}

	if s, ok := r.GetStruct(name); ok {
		return s, nil
	}

	return nil, fmt.Errorf("unknown type %q", name)
}
