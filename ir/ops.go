package ir

import (
	"fmt"
	"strings"

	"github.com/petiaccja/sorbit/layout"
)

// OpCode identifies one atomic layout operation.
type OpCode uint8

const (
	// OpConst materializes an immediate, used to seed a container with
	// its default bits.
	OpConst OpCode = iota
	// OpLoadField reads a field's logical value from the source value.
	OpLoadField
	// OpStoreField writes a logical value into the reconstructed value.
	OpStoreField
	// OpLoadContainer reads a container's raw bytes from the stream.
	OpLoadContainer
	// OpStoreContainer writes a container's raw bytes to the stream.
	OpStoreContainer
	// OpExtractBits shifts and masks a claimed range out of a container.
	OpExtractBits
	// OpInsertBits packs a field value into a container accumulator.
	// Packing is overflow checked against the claimed width.
	OpInsertBits
	// OpConvertByteOrder reverses the byte sequence of a logical value.
	OpConvertByteOrder
	// OpCastRepr converts between a storage representation and a
	// logical value type.
	OpCastRepr
	// OpSerializeNested delegates a field to another type's serializer.
	OpSerializeNested
	// OpDeserializeNested delegates to another type's deserializer.
	OpDeserializeNested
	// OpPadTo moves the stream to an absolute position.
	OpPadTo
	// OpAlignTo moves the stream to the next multiple of a size.
	OpAlignTo
)

var opNames = [...]string{
	OpConst:             "const",
	OpLoadField:         "load_field",
	OpStoreField:        "store_field",
	OpLoadContainer:     "load_container",
	OpStoreContainer:    "store_container",
	OpExtractBits:       "extract_bits",
	OpInsertBits:        "insert_bits",
	OpConvertByteOrder:  "convert_byte_order",
	OpCastRepr:          "cast_repr",
	OpSerializeNested:   "serialize_nested",
	OpDeserializeNested: "deserialize_nested",
	OpPadTo:             "pad_to",
	OpAlignTo:           "align_to",
}

func (c OpCode) String() string {
	if int(c) < len(opNames) {
		return opNames[c]
	}
	return "unknown"
}

// HasResult reports whether ops with this code define an SSA value.
func (c OpCode) HasResult() bool {
	switch c {
	case OpConst, OpLoadField, OpLoadContainer, OpExtractBits,
		OpInsertBits, OpConvertByteOrder, OpCastRepr:
		return true
	}
	return false
}

// Value is an SSA id, local to one op sequence. Ids start at 1; zero
// means no value.
type Value int

func (v Value) String() string {
	return fmt.Sprintf("%%%d", int(v))
}

// Op is one IR operation. Which fields are meaningful depends on Code;
// every op is immutable once appended to a sequence and its result is
// consumed exactly once.
type Op struct {
	Code   OpCode
	Result Value
	Args   []Value

	// Field is the logical field name for load/store/nested ops, and
	// the dotted diagnostic path for overflow-checked packing.
	Field string
	// TypeName references another annotated type for nested ops.
	TypeName string
	// From and To describe value conversions and packing semantics.
	From layout.Kind
	To   layout.Kind
	// Width is a byte count: container width, pad target, or alignment.
	Width int
	// Shift and Bits locate a claim within its container. For casts,
	// Bits is the significant source width (0 means the full width).
	Shift uint
	Bits  uint
	// Const is the immediate for OpConst.
	Const uint64
	// Order is the wire order for OpConvertByteOrder.
	Order layout.ByteOrder
	// Checked marks a narrowing cast on the serialize path, which must
	// fail with value_overflow instead of truncating.
	Checked bool
}

func (o Op) String() string {
	var b strings.Builder
	if o.Code.HasResult() {
		fmt.Fprintf(&b, "%s = ", o.Result)
	}
	b.WriteString(o.Code.String())

	switch o.Code {
	case OpConst:
		fmt.Fprintf(&b, " %#x", o.Const)
	case OpLoadField, OpStoreField:
		fmt.Fprintf(&b, " %s", o.Field)
	case OpLoadContainer, OpStoreContainer:
		fmt.Fprintf(&b, " [width=%d]", o.Width)
	case OpExtractBits:
		fmt.Fprintf(&b, " [shift=%d, width=%d]", o.Shift, o.Bits)
	case OpInsertBits:
		fmt.Fprintf(&b, " [shift=%d, width=%d, %s]", o.Shift, o.Bits, o.Field)
	case OpConvertByteOrder:
		fmt.Fprintf(&b, " [%s, width=%d]", o.Order, o.Width)
	case OpCastRepr:
		fmt.Fprintf(&b, " [%s -> %s]", o.From, o.To)
	case OpSerializeNested, OpDeserializeNested:
		fmt.Fprintf(&b, " [%s] %s", o.TypeName, o.Field)
	case OpPadTo, OpAlignTo:
		fmt.Fprintf(&b, " [%d]", o.Width)
	}

	for i, a := range o.Args {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

// Program holds the lowered op sequences of one type. Struct programs
// use Serialize/Deserialize; enum programs hold one sub-program per
// variant and dispatch on the discriminant described by the definition.
type Program struct {
	Type        *layout.TypeDefinition
	Serialize   []Op
	Deserialize []Op
	Variants    []VariantProgram
}

// VariantProgram is the lowered body of one enum variant.
type VariantProgram struct {
	Name         string
	Discriminant uint64
	Serialize    []Op
	Deserialize  []Op
}

// String renders a readable dump of the whole program.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:\n", p.Type.Kind, p.Type.Name)

	if p.Type.Kind == layout.DefEnum {
		fmt.Fprintf(&b, "discriminant: %s %s\n", p.Type.Repr, p.Type.ByteOrder)
		for _, v := range p.Variants {
			fmt.Fprintf(&b, "variant %s = %d\n", v.Name, v.Discriminant)
			writeSeq(&b, "  serialize:", v.Serialize)
			writeSeq(&b, "  deserialize:", v.Deserialize)
		}
		return b.String()
	}

	writeSeq(&b, "serialize:", p.Serialize)
	writeSeq(&b, "deserialize:", p.Deserialize)
	return b.String()
}

func writeSeq(b *strings.Builder, header string, ops []Op) {
	b.WriteString(header)
	b.WriteByte('\n')
	indent := "  "
	if strings.HasPrefix(header, "  ") {
		indent = "    "
	}
	for _, op := range ops {
		b.WriteString(indent)
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
}
