package layout

// ByteOrder is the wire ordering of a multi-byte container.
type ByteOrder uint8

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little_endian"
	}
	return "big_endian"
}

// BitNumbering maps declared bit indices to physical bit positions
// within a container.
type BitNumbering uint8

const (
	// LSB0 numbers bit 0 as the least significant bit.
	LSB0 BitNumbering = iota
	// MSB0 numbers bit 0 as the most significant bit.
	MSB0
)

func (n BitNumbering) String() string {
	if n == MSB0 {
		return "MSB0"
	}
	return "LSB0"
}

// BitRange is a field's claim within its container, in declared
// (convention-dependent) indices. Lo and Hi are inclusive.
type BitRange struct {
	Lo uint
	Hi uint
}

// Width returns the number of bits the range claims.
func (r BitRange) Width() uint {
	return r.Hi - r.Lo + 1
}

// Normalize resolves the declared range to an absolute (shift, width)
// pair relative to the container's least significant bit, independent of
// the numbering convention.
func (r BitRange) Normalize(num BitNumbering, containerBits uint) (shift, width uint) {
	width = r.Width()
	if num == MSB0 {
		return containerBits - 1 - r.Hi, width
	}
	return r.Lo, width
}

// DefKind distinguishes struct-like from enum-like definitions.
type DefKind uint8

const (
	DefStruct DefKind = iota
	DefEnum
)

func (k DefKind) String() string {
	if k == DefEnum {
		return "enum"
	}
	return "struct"
}

// TypeDefinition is the validated layout model of one annotated type.
// It is immutable after Parse returns it.
type TypeDefinition struct {
	Name      string
	Kind      DefKind
	ByteOrder ByteOrder

	// Length pads the stream to an absolute size after the last field,
	// Round to the next multiple. Zero means no constraint.
	Length int
	Round  int

	// Struct layout.
	Fields []FieldSpec
	Groups []BitFieldGroup

	// Enum layout. Repr is the discriminant storage type.
	Repr     Kind
	Variants []Variant
}

// Variant is one alternative of an enum-like definition.
type Variant struct {
	Name         string
	Discriminant uint64
	Fields       []FieldSpec
	Groups       []BitFieldGroup
}

// FieldSpec is one declared field. Group is an index into the owning
// definition's Groups slice, or -1 for a plain field.
type FieldSpec struct {
	Name string
	Type Kind
	// TypeName is the referenced type's name when Type is Nested.
	TypeName string

	Group int
	Range BitRange

	// Repr overrides the storage width of a plain field. Invalid means
	// the field's natural width.
	Repr      Kind
	ByteOrder ByteOrder

	// Offset pads the stream to an absolute position before the field,
	// Align to the next multiple. Round pads to the next multiple after
	// the field. Negative Offset and zero Align or Round mean no
	// constraint.
	Offset int
	Align  int
	Round  int
}

// ContainerWidth returns the storage width in bytes of a plain field.
func (f *FieldSpec) ContainerWidth() int {
	if f.Repr != Invalid {
		return f.Repr.Width()
	}
	return f.Type.Width()
}

// BitFieldGroup is a shared container claimed bit-by-bit by its member
// fields.
type BitFieldGroup struct {
	Name      string
	Repr      Kind
	Numbering BitNumbering
	ByteOrder ByteOrder

	// Default seeds bits not claimed by any member on serialize.
	Default uint64

	// Offset and Align position the container in the stream before it
	// is read or written. Round pads to the next multiple after it.
	Offset int
	Align  int
	Round  int
}

// Bits returns the container width in bits.
func (g *BitFieldGroup) Bits() uint {
	return uint(8 * g.Repr.Width())
}

// RawType is the structural description of an annotated definition as
// extracted from source, before any validation.
type RawType struct {
	Name string
	Kind DefKind
	// Options is the comma-separated option list from the type-level
	// directive.
	Options  string
	Fields   []RawField
	Variants []RawVariant
}

// RawField is one declared field with its unparsed tag.
type RawField struct {
	Name string
	Type string
	Tag  string
}

// RawVariant is one enum alternative with its unparsed directive options.
type RawVariant struct {
	Name    string
	Options string
	Fields  []RawField
}
