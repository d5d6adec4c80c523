package layout

// Kind identifies the declared value type of a field.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	// Nested marks a field whose value type is itself an annotated type.
	Nested
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	Nested:  "nested",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var kindByName = map[string]Kind{
	"bool":    Bool,
	"uint8":   Uint8,
	"uint16":  Uint16,
	"uint32":  Uint32,
	"uint64":  Uint64,
	"byte":    Uint8,
	"int8":    Int8,
	"int16":   Int16,
	"int32":   Int32,
	"int64":   Int64,
	"float32": Float32,
	"float64": Float64,
}

// KindOf maps a declared Go type name to its Kind. Names that are not
// recognized primitives are treated as nested annotated types.
func KindOf(typeName string) Kind {
	if typeName == "" {
		return Invalid
	}
	if k, ok := kindByName[typeName]; ok {
		return k
	}
	return Nested
}

// Width returns the natural storage width in bytes, or 0 for nested types.
func (k Kind) Width() int {
	switch k {
	case Bool, Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Bits returns the number of value bits the kind can carry. Booleans
// carry a single bit even though they occupy a full byte when unpacked.
func (k Kind) Bits() uint {
	if k == Bool {
		return 1
	}
	return uint(8 * k.Width())
}

// IsUnsigned reports whether k is an unsigned integer type.
func (k Kind) IsUnsigned() bool {
	switch k {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer type.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsFloat reports whether k is a floating point type.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// Packable reports whether values of this kind may join a bit-field
// group. Floats and nested types cannot be packed.
func (k Kind) Packable() bool {
	return k == Bool || k.IsUnsigned() || k.IsSigned()
}

// GoType returns the Go source spelling of the kind.
func (k Kind) GoType() string {
	return kindNames[k]
}
