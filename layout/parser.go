package layout

import (
	"github.com/petiaccja/sorbit/errors"
)

// Parse validates a raw structural description and produces the layout
// model for it. All layout diagnostics of the parse phase originate
// here; lowering and codegen operate on an already consistent model.
func Parse(raw *RawType) (*TypeDefinition, error) {
	def := &TypeDefinition{
		Name:      raw.Name,
		Kind:      raw.Kind,
		ByteOrder: BigEndian,
	}
	path := []string{raw.Name}

	opts, err := parseOptions(path, raw.Options)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		switch opt := opt.(type) {
		case byteOrderOpt:
			def.ByteOrder = opt.order
		case lenOpt:
			def.Length = opt.n
		case roundOpt:
			def.Round = opt.n
		case reprOpt:
			if raw.Kind != DefEnum {
				return nil, errors.Unsupported(errors.PhaseParse, path, "repr is only valid on enum definitions")
			}
			def.Repr = opt.kind
		default:
			return nil, errors.Unsupported(errors.PhaseParse, path, "attribute is not valid at type level")
		}
	}

	switch raw.Kind {
	case DefStruct:
		def.Fields, def.Groups, err = parseFields(path, def.ByteOrder, raw.Fields)
		if err != nil {
			return nil, err
		}

	case DefEnum:
		if def.Repr == Invalid {
			return nil, errors.MissingAttribute(path, "repr")
		}
		if err := parseVariants(def, raw.Variants); err != nil {
			return nil, err
		}
	}
	return def, nil
}

func parseVariants(def *TypeDefinition, raws []RawVariant) error {
	next := uint64(0)
	used := make(map[uint64]string, len(raws))

	for _, rv := range raws {
		path := []string{def.Name, rv.Name}
		v := Variant{Name: rv.Name, Discriminant: next}

		opts, err := parseOptions(path, rv.Options)
		if err != nil {
			return err
		}
		for _, opt := range opts {
			d, ok := opt.(discriminantOpt)
			if !ok {
				return errors.Unsupported(errors.PhaseParse, path, "only discriminant is valid at variant level")
			}
			v.Discriminant = d.value
		}

		if prev, taken := used[v.Discriminant]; taken {
			return errors.New(errors.PhaseParse, errors.KindInvalidAttributeValue).
				Path(path...).
				Value(v.Discriminant).
				Detail("discriminant %d is already used by variant %s", v.Discriminant, prev).
				Build()
		}
		used[v.Discriminant] = rv.Name
		next = v.Discriminant + 1

		v.Fields, v.Groups, err = parseFields(path, def.ByteOrder, rv.Fields)
		if err != nil {
			return err
		}
		def.Variants = append(def.Variants, v)
	}
	return nil
}

// groupState tracks which group attributes were set explicitly, so that
// a default never counts as a conflict with an explicit value.
type groupState struct {
	hasRepr      bool
	hasNumbering bool
	hasOrder     bool
	hasDefault   bool
}

func parseFields(typePath []string, defOrder ByteOrder, raws []RawField) ([]FieldSpec, []BitFieldGroup, error) {
	var (
		fields  []FieldSpec
		groups  []BitFieldGroup
		states  []groupState
		byName  = map[string]int{}
		current = -1 // group the previous field belonged to
	)

	for _, rf := range raws {
		path := append(append([]string{}, typePath...), rf.Name)

		kind := KindOf(rf.Type)
		if kind == Invalid {
			return nil, nil, errors.InvalidAttributeValue(path, "type", rf.Type, "a supported value type")
		}
		f := FieldSpec{
			Name:      rf.Name,
			Type:      kind,
			ByteOrder: defOrder,
			Group:     -1,
			Offset:    -1,
		}
		if kind == Nested {
			f.TypeName = rf.Type
		}

		opts, err := parseOptions(path, rf.Tag)
		if err != nil {
			return nil, nil, err
		}

		var (
			groupName string
			hasGroup  bool
			hasBits   bool
			hasRepr   bool
			repr      Kind
			hasOrder  bool
			hasNum    bool
			numbering BitNumbering
			hasDef    bool
			defValue  uint64
		)
		for _, opt := range opts {
			switch opt := opt.(type) {
			case bitFieldOpt:
				groupName, hasGroup = opt.name, true
			case bitsOpt:
				f.Range, hasBits = opt.r, true
			case reprOpt:
				repr, hasRepr = opt.kind, true
			case byteOrderOpt:
				f.ByteOrder, hasOrder = opt.order, true
			case numberingOpt:
				numbering, hasNum = opt.numbering, true
			case defaultOpt:
				defValue, hasDef = opt.value, true
			case offsetOpt:
				f.Offset = opt.n
			case alignOpt:
				f.Align = opt.n
			case roundOpt:
				f.Round = opt.n
			default:
				return nil, nil, errors.Unsupported(errors.PhaseParse, path, "attribute is not valid at field level")
			}
		}

		if hasBits != hasGroup {
			return nil, nil, errors.New(errors.PhaseParse, errors.KindInconsistentBitFieldAttributes).
				Path(path...).
				Detail("bits and bit_field must be specified together").
				Build()
		}

		if !hasGroup {
			if hasNum || hasDef {
				return nil, nil, errors.New(errors.PhaseParse, errors.KindInconsistentBitFieldAttributes).
					Path(path...).
					Detail("bit_numbering and default apply only to bit-field members").
					Build()
			}
			if kind == Nested && (hasRepr || hasOrder) {
				return nil, nil, errors.Unsupported(errors.PhaseParse, path, "nested fields carry their own layout, repr and byte_order are not applicable")
			}
			if hasRepr && (kind == Bool || kind.IsFloat()) {
				return nil, nil, errors.Unsupported(errors.PhaseParse, path, "repr override is only valid on integer fields")
			}
			if hasRepr {
				f.Repr = repr
			}
			current = -1
			fields = append(fields, f)
			continue
		}

		// Bit-field member.
		if !kind.Packable() {
			return nil, nil, errors.Unsupported(errors.PhaseParse, path, "only bool and integer fields can join a bit-field group")
		}

		gi, known := byName[groupName]
		switch {
		case !known:
			gi = len(groups)
			byName[groupName] = gi
			groups = append(groups, BitFieldGroup{
				Name:      groupName,
				Numbering: LSB0,
				ByteOrder: defOrder,
				Offset:    f.Offset,
				Align:     f.Align,
				Round:     f.Round,
			})
			states = append(states, groupState{})

		case gi != current:
			return nil, nil, errors.New(errors.PhaseParse, errors.KindInconsistentBitFieldAttributes).
				Path(path...).
				Detail("members of bit-field group %s must be declared consecutively", groupName).
				Build()

		default:
			if f.Offset >= 0 || f.Align > 0 || f.Round > 0 {
				return nil, nil, errors.Unsupported(errors.PhaseParse, path, "offset, align and round are only valid on a group's first member")
			}
		}
		current = gi
		g, st := &groups[gi], &states[gi]

		if hasRepr {
			if st.hasRepr && g.Repr != repr {
				return nil, nil, conflict(path, "repr", groupName, g.Repr.String(), repr.String())
			}
			g.Repr, st.hasRepr = repr, true
		}
		if hasNum {
			if st.hasNumbering && g.Numbering != numbering {
				return nil, nil, conflict(path, "bit_numbering", groupName, g.Numbering.String(), numbering.String())
			}
			g.Numbering, st.hasNumbering = numbering, true
		}
		if hasOrder {
			if st.hasOrder && g.ByteOrder != f.ByteOrder {
				return nil, nil, conflict(path, "byte_order", groupName, g.ByteOrder.String(), f.ByteOrder.String())
			}
			g.ByteOrder, st.hasOrder = f.ByteOrder, true
		}
		if hasDef {
			if st.hasDefault && g.Default != defValue {
				return nil, nil, conflict(path, "default", groupName, "", "")
			}
			g.Default, st.hasDefault = defValue, true
		}

		f.Group = gi
		f.Offset, f.Align, f.Round = -1, 0, 0
		fields = append(fields, f)
	}

	if err := checkGroups(typePath, fields, groups); err != nil {
		return nil, nil, err
	}
	return fields, groups, nil
}

func conflict(path []string, attr, group, from, to string) *errors.Error {
	b := errors.New(errors.PhaseParse, errors.KindConflictingGroupAttributes).Path(path...)
	if from != "" {
		return b.Detail("%s of group %s redefined from %s to %s", attr, group, from, to).Build()
	}
	return b.Detail("%s of group %s redefined with a different value", attr, group).Build()
}

// checkGroups runs the per-group validations that need the resolved
// container width: repr presence, range bounds, boolean widths, and
// pairwise overlap after numbering normalization.
func checkGroups(typePath []string, fields []FieldSpec, groups []BitFieldGroup) error {
	for gi := range groups {
		g := &groups[gi]
		if g.Repr == Invalid {
			return errors.MissingAttribute(append(append([]string{}, typePath...), g.Name), "repr")
		}

		type member struct {
			name         string
			shift, width uint
		}
		var members []member
		for fi := range fields {
			f := &fields[fi]
			if f.Group != gi {
				continue
			}
			path := append(append([]string{}, typePath...), f.Name)

			if f.Range.Hi >= g.Bits() {
				return errors.New(errors.PhaseParse, errors.KindBitRangeOutOfBounds).
					Path(path...).
					Detail("bit %d exceeds the %d-bit container %s", f.Range.Hi, g.Bits(), g.Name).
					Build()
			}
			shift, width := f.Range.Normalize(g.Numbering, g.Bits())
			if f.Type == Bool && width != 1 {
				return errors.New(errors.PhaseParse, errors.KindWidthMismatchForBoolean).
					Path(path...).
					Detail("boolean field claims %d bits, exactly 1 required", width).
					Build()
			}
			if f.Type != Bool && width > f.Type.Bits() {
				return errors.New(errors.PhaseParse, errors.KindInvalidAttributeValue).
					Path(path...).
					Detail("field type %s holds at most %d bits, %d claimed", f.Type, f.Type.Bits(), width).
					Build()
			}
			members = append(members, member{f.Name, shift, width})
		}

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.shift < b.shift+b.width && b.shift < a.shift+a.width {
					return errors.OverlappingBitRanges(
						append(append([]string{}, typePath...), g.Name), a.name, b.name)
				}
			}
		}
	}
	return nil
}
