package ir

import (
	"sync"

	"go.uber.org/zap"

	"github.com/petiaccja/sorbit/binstream"
	"github.com/petiaccja/sorbit/errors"
	"github.com/petiaccja/sorbit/layout"
)

// Lowerer turns validated layout models into op programs. Programs are
// cached by type name and computed at most once; nested type references
// resolve through the cache. Lower is safe to call from multiple
// goroutines for unrelated types.
type Lowerer struct {
	mu       sync.Mutex
	defs     map[string]*layout.TypeDefinition
	programs map[string]*Program
}

// NewLowerer returns an empty Lowerer.
func NewLowerer() *Lowerer {
	return &Lowerer{
		defs:     make(map[string]*layout.TypeDefinition),
		programs: make(map[string]*Program),
	}
}

// Add registers a definition so fields of other types can reference it.
func (l *Lowerer) Add(def *layout.TypeDefinition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[def.Name] = def
}

// Lower returns the op program for a registered type, computing and
// caching it on first use.
func (l *Lowerer) Lower(name string) (*Program, error) {
	return l.lower(name, nil, map[string]bool{})
}

// lower is the memoized core. visiting carries the names on the current
// resolution path; finding a name already on it means the type
// transitively contains itself.
func (l *Lowerer) lower(name string, path []string, visiting map[string]bool) (*Program, error) {
	l.mu.Lock()
	if p, ok := l.programs[name]; ok {
		l.mu.Unlock()
		return p, nil
	}
	def, ok := l.defs[name]
	l.mu.Unlock()
	if !ok {
		return nil, errors.UnresolvedNestedType(path, name)
	}

	if visiting[name] {
		return nil, errors.RecursiveLayout(path, name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	p := &Program{Type: def}
	var err error
	switch def.Kind {
	case layout.DefStruct:
		p.Serialize, p.Deserialize, err = l.lowerFields(def, def.Fields, def.Groups, def.Name, visiting)

	case layout.DefEnum:
		for _, v := range def.Variants {
			vp := VariantProgram{Name: v.Name, Discriminant: v.Discriminant}
			vp.Serialize, vp.Deserialize, err = l.lowerFields(def, v.Fields, v.Groups, def.Name+"."+v.Name, visiting)
			if err != nil {
				break
			}
			p.Variants = append(p.Variants, vp)
		}
	}
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if cached, ok := l.programs[name]; ok {
		// Another goroutine got there first, keep its program.
		p = cached
	} else {
		l.programs[name] = p
	}
	l.mu.Unlock()

	Logger().Debug("lowered type",
		zap.String("type", name),
		zap.Int("serialize_ops", len(p.Serialize)),
		zap.Int("deserialize_ops", len(p.Deserialize)),
		zap.Int("variants", len(p.Variants)))
	return p, nil
}

// seq accumulates one op sequence and numbers its SSA values.
type seq struct {
	ops  []Op
	next Value
}

func newSeq() *seq {
	return &seq{next: 1}
}

func (s *seq) emit(op Op) Value {
	if op.Code.HasResult() {
		op.Result = s.next
		s.next++
	}
	s.ops = append(s.ops, op)
	return op.Result
}

// rawKind returns the unsigned storage kind of a byte width.
func rawKind(width int) layout.Kind {
	switch width {
	case 1:
		return layout.Uint8
	case 2:
		return layout.Uint16
	case 4:
		return layout.Uint32
	default:
		return layout.Uint64
	}
}

// lowerFields produces the serialize and deserialize sequences for one
// ordered field list. Fields are processed in declaration order; a
// bit-field group is handled as a whole when its first member is
// reached, which yields exactly one container access per group.
func (l *Lowerer) lowerFields(def *layout.TypeDefinition, fields []layout.FieldSpec, groups []layout.BitFieldGroup, prefix string, visiting map[string]bool) ([]Op, []Op, error) {
	ser, des := newSeq(), newSeq()
	done := make(map[int]bool, len(groups))

	for fi := range fields {
		f := &fields[fi]

		if f.Group >= 0 {
			if done[f.Group] {
				continue
			}
			done[f.Group] = true
			lowerGroup(ser, des, &groups[f.Group], members(fields, f.Group), prefix)
			continue
		}

		if f.Type == layout.Nested {
			if _, err := l.lower(f.TypeName, append([]string{prefix}, f.Name), visiting); err != nil {
				return nil, nil, err
			}
		}
		lowerField(ser, des, f, prefix)
	}

	if def.Length > 0 {
		ser.emit(Op{Code: OpPadTo, Width: def.Length})
		des.emit(Op{Code: OpPadTo, Width: def.Length})
	}
	if def.Round > 0 {
		ser.emit(Op{Code: OpAlignTo, Width: def.Round})
		des.emit(Op{Code: OpAlignTo, Width: def.Round})
	}
	return ser.ops, des.ops, nil
}

func members(fields []layout.FieldSpec, group int) []*layout.FieldSpec {
	var ms []*layout.FieldSpec
	for i := range fields {
		if fields[i].Group == group {
			ms = append(ms, &fields[i])
		}
	}
	return ms
}

func emitPosition(ser, des *seq, offset, align int) {
	if offset >= 0 {
		ser.emit(Op{Code: OpPadTo, Width: offset})
		des.emit(Op{Code: OpPadTo, Width: offset})
	}
	if align > 0 {
		ser.emit(Op{Code: OpAlignTo, Width: align})
		des.emit(Op{Code: OpAlignTo, Width: align})
	}
}

// emitRound pads to the next multiple of a size after a field or group,
// when one was requested.
func emitRound(ser, des *seq, round int) {
	if round > 0 {
		ser.emit(Op{Code: OpAlignTo, Width: round})
		des.emit(Op{Code: OpAlignTo, Width: round})
	}
}

// lowerField handles a plain, byte-aligned field: one container access
// of the field's storage width, with casts and byte order conversion
// around it as needed.
func lowerField(ser, des *seq, f *layout.FieldSpec, prefix string) {
	emitPosition(ser, des, f.Offset, f.Align)

	if f.Type == layout.Nested {
		ser.emit(Op{Code: OpSerializeNested, Field: f.Name, TypeName: f.TypeName})
		des.emit(Op{Code: OpDeserializeNested, Field: f.Name, TypeName: f.TypeName})
		emitRound(ser, des, f.Round)
		return
	}

	width := f.ContainerWidth()
	raw := rawKind(width)
	little := f.ByteOrder == layout.LittleEndian && width > 1
	path := prefix + "." + f.Name

	v := ser.emit(Op{Code: OpLoadField, Field: f.Name, From: f.Type})
	if f.Type != raw {
		v = ser.emit(Op{
			Code:    OpCastRepr,
			From:    f.Type,
			To:      raw,
			Field:   path,
			Checked: raw.Bits() < f.Type.Bits(),
			Args:    []Value{v},
		})
	}
	if little {
		v = ser.emit(Op{Code: OpConvertByteOrder, Order: layout.LittleEndian, Width: width, Args: []Value{v}})
	}
	ser.emit(Op{Code: OpStoreContainer, Width: width, Args: []Value{v}})

	v = des.emit(Op{Code: OpLoadContainer, Width: width})
	if little {
		v = des.emit(Op{Code: OpConvertByteOrder, Order: layout.LittleEndian, Width: width, Args: []Value{v}})
	}
	if f.Type != raw {
		v = des.emit(Op{Code: OpCastRepr, From: raw, To: f.Type, Field: path, Args: []Value{v}})
	}
	des.emit(Op{Code: OpStoreField, Field: f.Name, To: f.Type, Args: []Value{v}})

	emitRound(ser, des, f.Round)
}

// lowerGroup handles one bit-field group: a single container store fed
// by every member's insert on serialize, and a single container load
// feeding every member's extract on deserialize. Bit positions refer to
// the order-corrected logical value, so the byte order conversion sits
// between the raw stream access and the bit operations.
func lowerGroup(ser, des *seq, g *layout.BitFieldGroup, ms []*layout.FieldSpec, prefix string) {
	emitPosition(ser, des, g.Offset, g.Align)

	width := g.Repr.Width()
	bits := g.Bits()
	little := g.ByteOrder == layout.LittleEndian && width > 1

	var claimed uint64
	for _, m := range ms {
		shift, w := m.Range.Normalize(g.Numbering, bits)
		claimed |= binstream.Mask(w) << shift
	}

	// Serialize: seed unclaimed bits from the group default, insert
	// every member, store once.
	acc := ser.emit(Op{Code: OpConst, Const: g.Default &^ claimed})
	for _, m := range ms {
		shift, w := m.Range.Normalize(g.Numbering, bits)
		v := ser.emit(Op{Code: OpLoadField, Field: m.Name, From: m.Type})
		acc = ser.emit(Op{
			Code:  OpInsertBits,
			Shift: shift,
			Bits:  w,
			Field: prefix + "." + m.Name,
			From:  m.Type,
			Args:  []Value{acc, v},
		})
	}
	if little {
		acc = ser.emit(Op{Code: OpConvertByteOrder, Order: layout.LittleEndian, Width: width, Args: []Value{acc}})
	}
	ser.emit(Op{Code: OpStoreContainer, Width: width, Args: []Value{acc}})

	// Deserialize: load once, extract every member from that one value.
	raw := des.emit(Op{Code: OpLoadContainer, Width: width})
	if little {
		raw = des.emit(Op{Code: OpConvertByteOrder, Order: layout.LittleEndian, Width: width, Args: []Value{raw}})
	}
	for _, m := range ms {
		shift, w := m.Range.Normalize(g.Numbering, bits)
		v := des.emit(Op{Code: OpExtractBits, Shift: shift, Bits: w, Args: []Value{raw}})
		v = des.emit(Op{Code: OpCastRepr, From: g.Repr, To: m.Type, Bits: w, Args: []Value{v}})
		des.emit(Op{Code: OpStoreField, Field: m.Name, To: m.Type, Args: []Value{v}})
	}

	emitRound(ser, des, g.Round)
}
