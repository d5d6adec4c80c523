package ir

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/petiaccja/sorbit/binstream"
	"github.com/petiaccja/sorbit/errors"
	"github.com/petiaccja/sorbit/layout"
)

func serialize(t *testing.T, lw *Lowerer, p *Program, v any) []byte {
	t.Helper()
	w := binstream.New()
	if err := EvalSerialize(lw, p, v, w); err != nil {
		t.Fatalf("EvalSerialize: %v", err)
	}
	return w.Bytes()
}

func deserialize(t *testing.T, lw *Lowerer, p *Program, data []byte) any {
	t.Helper()
	v, err := EvalDeserialize(lw, p, binstream.NewReader(data))
	if err != nil {
		t.Fatalf("EvalDeserialize: %v", err)
	}
	return v
}

func TestEval_BitFieldIndependence(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "Nibbles",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "A", Type: "uint8", Tag: "bit_field=g, repr=uint8, bits=0..=3"},
			{Name: "B", Type: "uint8", Tag: "bit_field=g, bits=4..=7"},
		},
	}))
	p, err := lw.Lower("Nibbles")
	if err != nil {
		t.Fatal(err)
	}

	if got := serialize(t, lw, p, map[string]any{"A": uint8(0xF), "B": uint8(0x0)}); !bytes.Equal(got, []byte{0x0F}) {
		t.Errorf("a=0xF b=0x0: got % x, want 0f", got)
	}
	if got := serialize(t, lw, p, map[string]any{"A": uint8(0x0), "B": uint8(0xF)}); !bytes.Equal(got, []byte{0xF0}) {
		t.Errorf("a=0x0 b=0xF: got % x, want f0", got)
	}

	v := deserialize(t, lw, p, []byte{0xA5}).(map[string]any)
	if v["A"] != uint8(0x5) || v["B"] != uint8(0xA) {
		t.Errorf("deserialize 0xA5: got A=%#x B=%#x, want A=0x5 B=0xA", v["A"], v["B"])
	}
}

func TestEval_NumberingEquivalence(t *testing.T) {
	// bits=7 under LSB0 and bits=0 under MSB0 both address the top bit
	// of an 8-bit container.
	for _, tag := range []string{
		"bit_field=g, repr=uint8, bit_numbering=LSB0, bits=7",
		"bit_field=g, repr=uint8, bit_numbering=MSB0, bits=0",
	} {
		lw := NewLowerer()
		lw.Add(mustParse(t, &layout.RawType{
			Name:   "Top",
			Kind:   layout.DefStruct,
			Fields: []layout.RawField{{Name: "Flag", Type: "bool", Tag: tag}},
		}))
		p, err := lw.Lower("Top")
		if err != nil {
			t.Fatal(err)
		}

		if got := serialize(t, lw, p, map[string]any{"Flag": true}); !bytes.Equal(got, []byte{0x80}) {
			t.Errorf("%s: got % x, want 80", tag, got)
		}
		v := deserialize(t, lw, p, []byte{0x80}).(map[string]any)
		if v["Flag"] != true {
			t.Errorf("%s: top bit not read back", tag)
		}
	}
}

func TestEval_ByteOrderEffect(t *testing.T) {
	tests := []struct {
		order string
		want  []byte
	}{
		{"big_endian", []byte{0x12, 0x34}},
		{"little_endian", []byte{0x34, 0x12}},
	}

	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			lw := NewLowerer()
			lw.Add(mustParse(t, &layout.RawType{
				Name: "Word",
				Kind: layout.DefStruct,
				Fields: []layout.RawField{
					{Name: "Lo", Type: "uint8", Tag: "bit_field=g, repr=uint16, bits=0..=7, byte_order=" + tt.order},
					{Name: "Hi", Type: "uint8", Tag: "bit_field=g, bits=8..=15"},
				},
			}))
			p, err := lw.Lower("Word")
			if err != nil {
				t.Fatal(err)
			}

			// Logical container value 0x1234.
			in := map[string]any{"Lo": uint8(0x34), "Hi": uint8(0x12)}
			got := serialize(t, lw, p, in)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}

			// Extraction results are identical in both orders.
			v := deserialize(t, lw, p, got).(map[string]any)
			if !reflect.DeepEqual(v, in) {
				t.Errorf("round trip: got %v, want %v", v, in)
			}
		})
	}
}

func TestEval_RoundTrip(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name:   "Inner",
		Kind:   layout.DefStruct,
		Fields: []layout.RawField{{Name: "X", Type: "int16", Tag: "byte_order=little_endian"}},
	}))
	lw.Add(mustParse(t, &layout.RawType{
		Name: "Packet",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "Version", Type: "uint8", Tag: "bit_field=hdr, repr=uint8, bits=0..=3"},
			{Name: "Urgent", Type: "bool", Tag: "bit_field=hdr, bits=7"},
			{Name: "Seq", Type: "uint32"},
			{Name: "Delta", Type: "int8", Tag: "bit_field=tail, repr=uint16, bits=0..=5"},
			{Name: "Mode", Type: "uint8", Tag: "bit_field=tail, bits=6..=8"},
			{Name: "Temp", Type: "float32"},
			{Name: "In", Type: "Inner"},
		},
	}))
	p, err := lw.Lower("Packet")
	if err != nil {
		t.Fatal(err)
	}

	in := map[string]any{
		"Version": uint8(7),
		"Urgent":  true,
		"Seq":     uint32(0xDEADBEEF),
		"Delta":   int8(-17),
		"Mode":    uint8(5),
		"Temp":    float32(36.6),
		"In":      map[string]any{"X": int16(-2)},
	}

	data := serialize(t, lw, p, in)
	out := deserialize(t, lw, p, data)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch:\n in: %v\nout: %v", in, out)
	}
}

func TestEval_SignedPacking(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "S",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "V", Type: "int8", Tag: "bit_field=g, repr=uint8, bits=0..=4"},
		},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	// -3 in 5 bits is 0b11101.
	if got := serialize(t, lw, p, map[string]any{"V": int8(-3)}); !bytes.Equal(got, []byte{0x1D}) {
		t.Fatalf("got % x, want 1d", got)
	}
	v := deserialize(t, lw, p, []byte{0x1D}).(map[string]any)
	if v["V"] != int8(-3) {
		t.Errorf("got %v, want -3", v["V"])
	}
}

func TestEval_ValueOverflow(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "S",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "V", Type: "uint8", Tag: "bit_field=g, repr=uint8, bits=0..=3"},
		},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	err = EvalSerialize(lw, p, map[string]any{"V": uint8(0x1F)}, binstream.New())
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindValueOverflow {
		t.Fatalf("got %v, want value_overflow", err)
	}
	if len(serr.Path) == 0 || serr.Path[0] != "S.V" {
		t.Errorf("overflow should name the field: %v", serr.Path)
	}
}

func TestEval_NarrowingReprOverflow(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "S",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "V", Type: "uint16", Tag: "repr=uint8"},
		},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	// A value that fits the narrowed storage round trips.
	if got := serialize(t, lw, p, map[string]any{"V": uint16(0xAB)}); !bytes.Equal(got, []byte{0xAB}) {
		t.Fatalf("got % x, want ab", got)
	}
	v := deserialize(t, lw, p, []byte{0xAB}).(map[string]any)
	if v["V"] != uint16(0xAB) {
		t.Errorf("got %v, want 0xAB", v["V"])
	}

	// One that does not must fail instead of truncating.
	err = EvalSerialize(lw, p, map[string]any{"V": uint16(0x1FF)}, binstream.New())
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindValueOverflow {
		t.Fatalf("got %v, want value_overflow", err)
	}
	if len(serr.Path) == 0 || serr.Path[0] != "S.V" {
		t.Errorf("overflow should name the field: %v", serr.Path)
	}
}

func TestEval_NarrowingReprSigned(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "S",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "V", Type: "int16", Tag: "repr=uint8"},
		},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	if got := serialize(t, lw, p, map[string]any{"V": int16(-2)}); !bytes.Equal(got, []byte{0xFE}) {
		t.Fatalf("got % x, want fe", got)
	}
	v := deserialize(t, lw, p, []byte{0xFE}).(map[string]any)
	if v["V"] != int16(-2) {
		t.Errorf("got %v, want -2", v["V"])
	}

	err = EvalSerialize(lw, p, map[string]any{"V": int16(300)}, binstream.New())
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindValueOverflow {
		t.Fatalf("got %v, want value_overflow", err)
	}
}

func TestEval_BoolNonzeroIsTrue(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name:   "S",
		Kind:   layout.DefStruct,
		Fields: []layout.RawField{{Name: "Flag", Type: "bool"}},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		wire byte
		want bool
	}{
		{0x00, false},
		{0x01, true},
		{0x02, true},
		{0xFF, true},
	}
	for _, tt := range tests {
		v := deserialize(t, lw, p, []byte{tt.wire}).(map[string]any)
		if v["Flag"] != tt.want {
			t.Errorf("wire %#x: got %v, want %v", tt.wire, v["Flag"], tt.want)
		}
	}
}

func TestEval_GroupDefault(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name: "S",
		Kind: layout.DefStruct,
		Fields: []layout.RawField{
			{Name: "V", Type: "uint8", Tag: "bit_field=g, repr=uint8, bits=0..=3, default=0xA0"},
		},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	if got := serialize(t, lw, p, map[string]any{"V": uint8(0x5)}); !bytes.Equal(got, []byte{0xA5}) {
		t.Errorf("got % x, want a5", got)
	}
	// Reserved bits are ignored on deserialize.
	v := deserialize(t, lw, p, []byte{0xF5}).(map[string]any)
	if v["V"] != uint8(0x5) {
		t.Errorf("got %v", v["V"])
	}
}

func TestEval_PaddingAndLength(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name:    "Padded",
		Kind:    layout.DefStruct,
		Options: "len=8",
		Fields: []layout.RawField{
			{Name: "A", Type: "uint8"},
			{Name: "B", Type: "uint8", Tag: "offset=4"},
		},
	}))
	p, err := lw.Lower("Padded")
	if err != nil {
		t.Fatal(err)
	}

	in := map[string]any{"A": uint8(1), "B": uint8(2)}
	data := serialize(t, lw, p, in)
	if !bytes.Equal(data, []byte{1, 0, 0, 0, 2, 0, 0, 0}) {
		t.Fatalf("got % x", data)
	}
	out := deserialize(t, lw, p, data)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip: got %v", out)
	}
}

func TestEval_Enum(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name:    "Frame",
		Kind:    layout.DefEnum,
		Options: "repr=uint8",
		Variants: []layout.RawVariant{
			{Name: "Ping", Fields: []layout.RawField{{Name: "Seq", Type: "uint16"}}},
			{Name: "Close", Options: "discriminant=9"},
		},
	}))
	p, err := lw.Lower("Frame")
	if err != nil {
		t.Fatal(err)
	}

	in := EnumValue{Variant: "Ping", Fields: map[string]any{"Seq": uint16(0x0102)}}
	data := serialize(t, lw, p, in)
	if !bytes.Equal(data, []byte{0x00, 0x01, 0x02}) {
		t.Fatalf("got % x", data)
	}
	out := deserialize(t, lw, p, data)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip: got %v", out)
	}

	if got := serialize(t, lw, p, EnumValue{Variant: "Close", Fields: map[string]any{}}); !bytes.Equal(got, []byte{0x09}) {
		t.Errorf("close: got % x", got)
	}

	_, err = EvalDeserialize(lw, p, binstream.NewReader([]byte{0x42}))
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindInvalidDiscriminant {
		t.Errorf("got %v, want invalid_discriminant", err)
	}
}

func TestEval_BufferExhausted(t *testing.T) {
	lw := NewLowerer()
	lw.Add(mustParse(t, &layout.RawType{
		Name:   "S",
		Kind:   layout.DefStruct,
		Fields: []layout.RawField{{Name: "A", Type: "uint32"}},
	}))
	p, err := lw.Lower("S")
	if err != nil {
		t.Fatal(err)
	}

	_, err = EvalDeserialize(lw, p, binstream.NewReader([]byte{1, 2}))
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindBufferExhausted {
		t.Errorf("got %v, want buffer_exhausted", err)
	}
}
