package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"

	"github.com/petiaccja/sorbit/errors"
	"github.com/petiaccja/sorbit/ir"
	"github.com/petiaccja/sorbit/layout"
)

// Generate renders one complete Go source file containing the
// serialize and deserialize routines for every program, in input order.
// The output is gofmt formatted.
func Generate(pkg string, progs []*ir.Program) ([]byte, error) {
	g := &generator{kinds: make(map[string]layout.DefKind, len(progs))}
	for _, p := range progs {
		g.kinds[p.Type.Name] = p.Type.Kind
	}

	g.printf("// Code generated by sorbit-gen. DO NOT EDIT.\n\n")
	g.printf("package %s\n\n", pkg)
	g.imports(progs)

	for _, p := range progs {
		switch p.Type.Kind {
		case layout.DefStruct:
			g.structType(p)
		case layout.DefEnum:
			g.enumType(p)
		}
	}
	if g.err != nil {
		return nil, g.err
	}

	src, err := format.Source(g.buf.Bytes())
	if err != nil {
		return nil, errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Cause(err).
			Detail("emitted source does not format").
			Build()
	}
	return src, nil
}

type generator struct {
	buf bytes.Buffer
	err error
	// kinds maps type names to struct or enum, which decides how a
	// nested field is passed to its serializer.
	kinds map[string]layout.DefKind
	// tmp numbers the temporaries that do not correspond to SSA values.
	tmp int
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

func (g *generator) imports(progs []*ir.Program) {
	needMath := false
	needErrors := false
	for _, p := range progs {
		if p.Type.Kind == layout.DefEnum {
			needErrors = true
		}
		for _, ops := range allSequences(p) {
			for _, op := range ops {
				if op.From.IsFloat() || op.To.IsFloat() {
					needMath = true
				}
			}
		}
	}

	g.printf("import (\n")
	if needMath {
		g.printf("\t\"math\"\n\n")
	}
	g.printf("\t\"github.com/petiaccja/sorbit/binstream\"\n")
	if needErrors {
		g.printf("\t\"github.com/petiaccja/sorbit/errors\"\n")
	}
	g.printf(")\n\n")
}

func allSequences(p *ir.Program) [][]ir.Op {
	seqs := [][]ir.Op{p.Serialize, p.Deserialize}
	for _, v := range p.Variants {
		seqs = append(seqs, v.Serialize, v.Deserialize)
	}
	return seqs
}

func (g *generator) structType(p *ir.Program) {
	name := p.Type.Name

	g.printf("// Serialize%s writes v to w in the wire layout of %s.\n", name, name)
	g.printf("func Serialize%s(v *%s, w *binstream.Writer) error {\n", name, name)
	g.serializeOps(p.Serialize, "v", "return err")
	g.printf("\treturn nil\n}\n\n")

	g.printf("// Deserialize%s reads one %s from r.\n", name, name)
	g.printf("func Deserialize%s(r *binstream.Reader) (%s, error) {\n", name, name)
	g.printf("\tvar v %s\n", name)
	g.deserializeOps(p.Deserialize, "v", "return v, err")
	g.printf("\treturn v, nil\n}\n\n")
}

func (g *generator) enumType(p *ir.Program) {
	name := p.Type.Name
	width := p.Type.Repr.Width()
	little := p.Type.ByteOrder == layout.LittleEndian && width > 1

	g.printf("// Serialize%s writes v to w, discriminant first.\n", name)
	g.printf("func Serialize%s(v %s, w *binstream.Writer) error {\n", name, name)
	g.printf("\tswitch t := v.(type) {\n")
	for i := range p.Variants {
		vp := &p.Variants[i]
		disc := vp.Discriminant
		if little {
			// The discriminant is a constant, reorder it at generation
			// time instead of emitting a reversal.
			disc = reverseConst(disc, width)
		}
		g.printf("\tcase *%s:\n", vp.Name)
		g.printf("\t\tif err := w.WriteBytes(%d, %#x); err != nil {\n\t\t\treturn err\n\t\t}\n", width, disc)
		g.serializeOps(vp.Serialize, "t", "return err")
	}
	g.printf("\tdefault:\n")
	g.printf("\t\treturn errors.Unsupported(errors.PhaseSerialize, []string{%q}, \"value is not a variant of %s\")\n", name, name)
	g.printf("\t}\n\treturn nil\n}\n\n")

	g.printf("// Deserialize%s reads one %s from r, dispatching on the discriminant.\n", name, name)
	g.printf("func Deserialize%s(r *binstream.Reader) (%s, error) {\n", name, name)
	g.printf("\td, err := r.ReadBytes(%d)\n", width)
	g.printf("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	if little {
		g.printf("\td = binstream.ReverseBytes(d, %d)\n", width)
	}
	g.printf("\tswitch d {\n")
	for i := range p.Variants {
		vp := &p.Variants[i]
		g.printf("\tcase %#x:\n", vp.Discriminant)
		g.printf("\t\tvar out %s\n", vp.Name)
		g.deserializeOps(vp.Deserialize, "out", "return nil, err")
		g.printf("\t\treturn &out, nil\n")
	}
	g.printf("\tdefault:\n")
	g.printf("\t\treturn nil, errors.InvalidDiscriminant([]string{%q}, d)\n", name)
	g.printf("\t}\n}\n\n")
}

func reverseConst(v uint64, width int) uint64 {
	var out uint64
	for i := 0; i < width; i++ {
		out = out<<8 | v&0xFF
		v >>= 8
	}
	return out
}

// serializeOps emits one statement per op. Values are uint64 bit
// patterns named after their SSA ids.
func (g *generator) serializeOps(ops []ir.Op, recv, errRet string) {
	for i := range ops {
		op := &ops[i]
		res := varName(op.Result)
		switch op.Code {
		case ir.OpConst:
			g.printf("\t%s := uint64(%#x)\n", res, op.Const)

		case ir.OpLoadField:
			g.printf("\t%s := %s\n", res, loadExpr(op.From, recv+"."+op.Field))

		case ir.OpInsertBits:
			acc, val := varName(op.Args[0]), varName(op.Args[1])
			switch {
			case op.From == layout.Bool:
				g.printf("\t%s := %s | %s<<%d\n", res, acc, val, op.Shift)
			case op.From.IsSigned():
				p := g.temp("p")
				g.printf("\t%s, err := binstream.PackInt(int64(%s), %d, %s)\n", p, val, op.Bits, strconv.Quote(op.Field))
				g.printf("\tif err != nil {\n\t\t%s\n\t}\n", errRet)
				g.printf("\t%s := %s | %s<<%d\n", res, acc, p, op.Shift)
			default:
				p := g.temp("p")
				g.printf("\t%s, err := binstream.PackUint(%s, %d, %s)\n", p, val, op.Bits, strconv.Quote(op.Field))
				g.printf("\tif err != nil {\n\t\t%s\n\t}\n", errRet)
				g.printf("\t%s := %s | %s<<%d\n", res, acc, p, op.Shift)
			}

		case ir.OpConvertByteOrder:
			g.printf("\t%s := binstream.ReverseBytes(%s, %d)\n", res, varName(op.Args[0]), op.Width)

		case ir.OpCastRepr:
			if op.Checked {
				arg := varName(op.Args[0])
				fn := "PackUint"
				if op.From.IsSigned() {
					fn = "PackInt"
					arg = fmt.Sprintf("binstream.SignExtend(%s, %d)", arg, op.From.Bits())
				}
				g.printf("\t%s, err := binstream.%s(%s, %d, %s)\n", res, fn, arg, op.To.Bits(), strconv.Quote(op.Field))
				g.printf("\tif err != nil {\n\t\t%s\n\t}\n", errRet)
			} else {
				g.printf("\t%s := %s\n", res, castExpr(op, varName(op.Args[0])))
			}

		case ir.OpStoreContainer:
			g.printf("\tif err := w.WriteBytes(%d, %s); err != nil {\n\t\t%s\n\t}\n", op.Width, varName(op.Args[0]), errRet)

		case ir.OpSerializeNested:
			// Enum entry points take the interface value itself.
			ref := "&" + recv + "." + op.Field
			if g.kinds[op.TypeName] == layout.DefEnum {
				ref = recv + "." + op.Field
			}
			g.printf("\tif err := Serialize%s(%s, w); err != nil {\n\t\t%s\n\t}\n", op.TypeName, ref, errRet)

		case ir.OpPadTo:
			g.printf("\tif err := w.PadTo(%d); err != nil {\n\t\t%s\n\t}\n", op.Width, errRet)

		case ir.OpAlignTo:
			g.printf("\tif err := w.AlignTo(%d); err != nil {\n\t\t%s\n\t}\n", op.Width, errRet)

		default:
			g.fail(op)
		}
	}
}

func (g *generator) deserializeOps(ops []ir.Op, recv, errRet string) {
	for i := range ops {
		op := &ops[i]
		res := varName(op.Result)
		switch op.Code {
		case ir.OpLoadContainer:
			g.printf("\t%s, err := r.ReadBytes(%d)\n", res, op.Width)
			g.printf("\tif err != nil {\n\t\t%s\n\t}\n", errRet)

		case ir.OpConvertByteOrder:
			g.printf("\t%s := binstream.ReverseBytes(%s, %d)\n", res, varName(op.Args[0]), op.Width)

		case ir.OpExtractBits:
			g.printf("\t%s := (%s >> %d) & binstream.Mask(%d)\n", res, varName(op.Args[0]), op.Shift, op.Bits)

		case ir.OpCastRepr:
			g.printf("\t%s := %s\n", res, castExpr(op, varName(op.Args[0])))

		case ir.OpStoreField:
			g.printf("\t%s.%s = %s\n", recv, op.Field, storeExpr(op.To, varName(op.Args[0])))

		case ir.OpDeserializeNested:
			n := g.temp("n")
			g.printf("\t%s, err := Deserialize%s(r)\n", n, op.TypeName)
			g.printf("\tif err != nil {\n\t\t%s\n\t}\n", errRet)
			g.printf("\t%s.%s = %s\n", recv, op.Field, n)

		case ir.OpPadTo:
			g.printf("\tif err := r.SkipTo(%d); err != nil {\n\t\t%s\n\t}\n", op.Width, errRet)

		case ir.OpAlignTo:
			g.printf("\tif err := r.AlignTo(%d); err != nil {\n\t\t%s\n\t}\n", op.Width, errRet)

		default:
			g.fail(op)
		}
	}
}

func (g *generator) temp(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s%d", prefix, g.tmp)
}

func (g *generator) fail(op *ir.Op) {
	if g.err == nil {
		g.err = errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Detail("op %s has no code generation rule", op.Code).
			Build()
	}
}

func varName(v ir.Value) string {
	return fmt.Sprintf("v%d", int(v))
}

// loadExpr converts a field's logical value to its uint64 bit pattern.
// Signed values stay sign extended; casts and packing narrow them.
func loadExpr(kind layout.Kind, field string) string {
	switch {
	case kind == layout.Bool:
		return fmt.Sprintf("binstream.PackBool(%s)", field)
	case kind == layout.Float32:
		return fmt.Sprintf("uint64(math.Float32bits(%s))", field)
	case kind == layout.Float64:
		return fmt.Sprintf("math.Float64bits(%s)", field)
	default:
		return fmt.Sprintf("uint64(%s)", field)
	}
}

// castExpr converts between representations on the uint64 pattern
// level. Signed targets sign extend from the significant source width.
func castExpr(op *ir.Op, arg string) string {
	bits := op.Bits
	if bits == 0 {
		bits = op.From.Bits()
		if op.To.Bits() < bits {
			bits = op.To.Bits()
		}
	}
	switch {
	case op.To == layout.Bool:
		// The boolean store compares against zero, so any nonzero wire
		// pattern decodes to true.
		return arg
	case op.To.IsSigned():
		return fmt.Sprintf("uint64(binstream.SignExtend(%s, %d))", arg, bits)
	default:
		return fmt.Sprintf("%s & binstream.Mask(%d)", arg, op.To.Bits())
	}
}

// storeExpr converts a uint64 bit pattern back to the field's Go type.
func storeExpr(kind layout.Kind, arg string) string {
	switch kind {
	case layout.Bool:
		return arg + " != 0"
	case layout.Uint64:
		return arg
	case layout.Float32:
		return fmt.Sprintf("math.Float32frombits(uint32(%s))", arg)
	case layout.Float64:
		return fmt.Sprintf("math.Float64frombits(%s)", arg)
	default:
		return fmt.Sprintf("%s(%s)", kind.GoType(), arg)
	}
}
