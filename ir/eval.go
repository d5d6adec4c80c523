package ir

import (
	"fmt"
	"math"

	"github.com/petiaccja/sorbit/binstream"
	"github.com/petiaccja/sorbit/errors"
	"github.com/petiaccja/sorbit/layout"
)

// EnumValue is the dynamic representation of an enum value: the selected
// variant's name and its field values.
type EnumValue struct {
	Variant string
	Fields  map[string]any
}

// EvalSerialize interprets a program's serialize sequence against a
// writer. Struct values are map[string]any keyed by field name with
// Go-typed entries, enum values are EnumValue. The evaluator agrees
// bit for bit with generated code.
func EvalSerialize(lw *Lowerer, p *Program, value any, w *binstream.Writer) error {
	if p.Type.Kind == layout.DefEnum {
		ev, ok := value.(EnumValue)
		if !ok {
			return evalTypeError(errors.PhaseSerialize, p.Type.Name, "EnumValue", value)
		}
		for i := range p.Variants {
			vp := &p.Variants[i]
			if vp.Name != ev.Variant {
				continue
			}
			if err := writeDiscriminant(p.Type, vp.Discriminant, w); err != nil {
				return err
			}
			return evalOps(lw, vp.Serialize, ev.Fields, nil, w, nil)
		}
		return errors.New(errors.PhaseSerialize, errors.KindInvalidDiscriminant).
			Path(p.Type.Name).
			Detail("no variant named %s", ev.Variant).
			Build()
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return evalTypeError(errors.PhaseSerialize, p.Type.Name, "map[string]any", value)
	}
	return evalOps(lw, p.Serialize, fields, nil, w, nil)
}

// EvalDeserialize interprets a program's deserialize sequence against a
// reader and returns map[string]any for structs, EnumValue for enums.
func EvalDeserialize(lw *Lowerer, p *Program, r *binstream.Reader) (any, error) {
	if p.Type.Kind == layout.DefEnum {
		disc, err := readDiscriminant(p.Type, r)
		if err != nil {
			return nil, err
		}
		for i := range p.Variants {
			vp := &p.Variants[i]
			if vp.Discriminant != disc {
				continue
			}
			fields := map[string]any{}
			if err := evalOps(lw, vp.Deserialize, nil, fields, nil, r); err != nil {
				return nil, err
			}
			return EnumValue{Variant: vp.Name, Fields: fields}, nil
		}
		return nil, errors.InvalidDiscriminant([]string{p.Type.Name}, disc)
	}

	fields := map[string]any{}
	if err := evalOps(lw, p.Deserialize, nil, fields, nil, r); err != nil {
		return nil, err
	}
	return fields, nil
}

func writeDiscriminant(def *layout.TypeDefinition, disc uint64, w *binstream.Writer) error {
	width := def.Repr.Width()
	if def.ByteOrder == layout.LittleEndian && width > 1 {
		disc = binstream.ReverseBytes(disc, width)
	}
	return w.WriteBytes(width, disc)
}

func readDiscriminant(def *layout.TypeDefinition, r *binstream.Reader) (uint64, error) {
	width := def.Repr.Width()
	disc, err := r.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	if def.ByteOrder == layout.LittleEndian && width > 1 {
		disc = binstream.ReverseBytes(disc, width)
	}
	return disc, nil
}

func evalOps(lw *Lowerer, ops []Op, in, out map[string]any, w *binstream.Writer, r *binstream.Reader) error {
	regs := make(map[Value]uint64, len(ops))

	for i := range ops {
		op := &ops[i]
		switch op.Code {
		case OpConst:
			regs[op.Result] = op.Const

		case OpLoadField:
			val, ok := in[op.Field]
			if !ok {
				return errors.Unsupported(errors.PhaseSerialize, []string{op.Field}, "no value supplied for field")
			}
			bits, err := toBits(op.From, op.Field, val)
			if err != nil {
				return err
			}
			regs[op.Result] = bits

		case OpStoreField:
			out[op.Field] = fromBits(op.To, regs[op.Args[0]])

		case OpLoadContainer:
			v, err := r.ReadBytes(op.Width)
			if err != nil {
				return err
			}
			regs[op.Result] = v

		case OpStoreContainer:
			if err := w.WriteBytes(op.Width, regs[op.Args[0]]); err != nil {
				return err
			}

		case OpExtractBits:
			regs[op.Result] = (regs[op.Args[0]] >> op.Shift) & binstream.Mask(op.Bits)

		case OpInsertBits:
			acc, val := regs[op.Args[0]], regs[op.Args[1]]
			packed, err := pack(op, val)
			if err != nil {
				return err
			}
			regs[op.Result] = acc&^(binstream.Mask(op.Bits)<<op.Shift) | packed<<op.Shift

		case OpConvertByteOrder:
			regs[op.Result] = binstream.ReverseBytes(regs[op.Args[0]], op.Width)

		case OpCastRepr:
			v, err := cast(op, regs[op.Args[0]])
			if err != nil {
				return err
			}
			regs[op.Result] = v

		case OpSerializeNested:
			val, ok := in[op.Field]
			if !ok {
				return errors.Unsupported(errors.PhaseSerialize, []string{op.Field}, "no value supplied for field")
			}
			np, err := lw.Lower(op.TypeName)
			if err != nil {
				return err
			}
			if err := EvalSerialize(lw, np, val, w); err != nil {
				return err
			}

		case OpDeserializeNested:
			np, err := lw.Lower(op.TypeName)
			if err != nil {
				return err
			}
			val, err := EvalDeserialize(lw, np, r)
			if err != nil {
				return err
			}
			out[op.Field] = val

		case OpPadTo:
			if w != nil {
				if err := w.PadTo(op.Width); err != nil {
					return err
				}
			} else if err := r.SkipTo(op.Width); err != nil {
				return err
			}

		case OpAlignTo:
			if w != nil {
				if err := w.AlignTo(op.Width); err != nil {
					return err
				}
			} else if err := r.AlignTo(op.Width); err != nil {
				return err
			}
		}
	}
	return nil
}

// pack narrows a member's bit pattern to its claimed width with the
// same overflow semantics as the generated code.
func pack(op *Op, val uint64) (uint64, error) {
	switch {
	case op.From == layout.Bool:
		return val & 1, nil
	case op.From.IsSigned():
		return binstream.PackInt(binstream.SignExtend(val, op.From.Bits()), op.Bits, op.Field)
	default:
		return binstream.PackUint(val, op.Bits, op.Field)
	}
}

// cast reinterprets a bit pattern between representation kinds. Signed
// targets sign extend from the significant source width. A checked cast
// narrows on the serialize path and fails on overflow instead of
// truncating, with the same semantics as the generated code.
func cast(op *Op, x uint64) (uint64, error) {
	if op.Checked {
		if op.From.IsSigned() {
			return binstream.PackInt(binstream.SignExtend(x, op.From.Bits()), op.To.Bits(), op.Field)
		}
		return binstream.PackUint(x, op.To.Bits(), op.Field)
	}

	bits := op.Bits
	if bits == 0 {
		bits = min(op.From.Bits(), op.To.Bits())
	}
	switch {
	case op.To == layout.Bool:
		// Any nonzero wire pattern decodes to true.
		if x != 0 {
			return 1, nil
		}
		return 0, nil
	case op.To.IsSigned():
		return uint64(binstream.SignExtend(x, bits)) & binstream.Mask(op.To.Bits()), nil
	default:
		return x & binstream.Mask(op.To.Bits()), nil
	}
}

func toBits(kind layout.Kind, field string, val any) (uint64, error) {
	switch kind {
	case layout.Bool:
		if v, ok := val.(bool); ok {
			return binstream.PackBool(v), nil
		}
	case layout.Uint8:
		if v, ok := val.(uint8); ok {
			return uint64(v), nil
		}
	case layout.Uint16:
		if v, ok := val.(uint16); ok {
			return uint64(v), nil
		}
	case layout.Uint32:
		if v, ok := val.(uint32); ok {
			return uint64(v), nil
		}
	case layout.Uint64:
		if v, ok := val.(uint64); ok {
			return v, nil
		}
	case layout.Int8:
		if v, ok := val.(int8); ok {
			return uint64(int64(v)) & binstream.Mask(8), nil
		}
	case layout.Int16:
		if v, ok := val.(int16); ok {
			return uint64(int64(v)) & binstream.Mask(16), nil
		}
	case layout.Int32:
		if v, ok := val.(int32); ok {
			return uint64(int64(v)) & binstream.Mask(32), nil
		}
	case layout.Int64:
		if v, ok := val.(int64); ok {
			return uint64(v), nil
		}
	case layout.Float32:
		if v, ok := val.(float32); ok {
			return uint64(math.Float32bits(v)), nil
		}
	case layout.Float64:
		if v, ok := val.(float64); ok {
			return math.Float64bits(v), nil
		}
	}
	return 0, evalTypeError(errors.PhaseSerialize, field, kind.String(), val)
}

func fromBits(kind layout.Kind, x uint64) any {
	switch kind {
	case layout.Bool:
		return x != 0
	case layout.Uint8:
		return uint8(x)
	case layout.Uint16:
		return uint16(x)
	case layout.Uint32:
		return uint32(x)
	case layout.Uint64:
		return x
	case layout.Int8:
		return int8(x)
	case layout.Int16:
		return int16(x)
	case layout.Int32:
		return int32(x)
	case layout.Int64:
		return int64(x)
	case layout.Float32:
		return math.Float32frombits(uint32(x))
	default:
		return math.Float64frombits(x)
	}
}

func evalTypeError(phase errors.Phase, path, want string, got any) *errors.Error {
	return errors.Unsupported(phase, []string{path}, fmt.Sprintf("value has type %T, want %s", got, want))
}
