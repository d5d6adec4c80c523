package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseParse,
				Kind:   KindOverlappingBitRanges,
				Path:   []string{"Header", "flags"},
				Detail: "fields a and b claim overlapping bits",
			},
			contains: []string{"[parse]", "overlapping_bit_ranges", "Header.flags", "fields a and b"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDeserialize,
				Kind:  KindBufferExhausted,
			},
			contains: []string{"[deserialize]", "buffer_exhausted"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLower,
				Kind:   KindUnresolvedNestedType,
				Detail: "no layout known for nested type Inner",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[lower]", "unresolved_nested_type", "Inner", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseParse,
		Kind:  KindInvalidAttributeValue,
		Cause: cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	a := &Error{Phase: PhaseParse, Kind: KindOverlappingBitRanges, Detail: "x"}
	b := &Error{Phase: PhaseParse, Kind: KindOverlappingBitRanges, Detail: "y"}
	c := &Error{Phase: PhaseLower, Kind: KindOverlappingBitRanges}

	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different phase should not match")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseParse, KindConflictingGroupAttributes).
		Path("Packet", "flags").
		Detail("repr redefined from %s to %s", "uint8", "uint16").
		Value("uint16").
		Build()

	if err.Phase != PhaseParse {
		t.Errorf("phase: got %s, want %s", err.Phase, PhaseParse)
	}
	if err.Kind != KindConflictingGroupAttributes {
		t.Errorf("kind: got %s, want %s", err.Kind, KindConflictingGroupAttributes)
	}
	if len(err.Path) != 2 || err.Path[0] != "Packet" || err.Path[1] != "flags" {
		t.Errorf("path: got %v", err.Path)
	}
	if !strings.Contains(err.Detail, "uint8") || !strings.Contains(err.Detail, "uint16") {
		t.Errorf("detail not formatted: %q", err.Detail)
	}
	if err.Value != "uint16" {
		t.Errorf("value: got %v", err.Value)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"unknown attribute", UnknownAttribute([]string{"T", "f"}, "bitz"), PhaseParse, KindUnknownAttribute},
		{"invalid value", InvalidAttributeValue(nil, "byte_order", "middle_endian", "big_endian or little_endian"), PhaseParse, KindInvalidAttributeValue},
		{"missing attribute", MissingAttribute([]string{"T"}, "repr"), PhaseParse, KindMissingAttribute},
		{"overlap", OverlappingBitRanges([]string{"T"}, "a", "b"), PhaseParse, KindOverlappingBitRanges},
		{"recursive", RecursiveLayout([]string{"T", "next"}, "T"), PhaseLower, KindRecursiveLayout},
		{"unresolved", UnresolvedNestedType([]string{"T", "inner"}, "Missing"), PhaseLower, KindUnresolvedNestedType},
		{"exhausted", BufferExhausted(PhaseDeserialize, 3, 4, 1), PhaseDeserialize, KindBufferExhausted},
		{"overflow", ValueOverflow("T.f", uint64(300), 4), PhaseSerialize, KindValueOverflow},
		{"discriminant", InvalidDiscriminant([]string{"Frame"}, 9), PhaseDeserialize, KindInvalidDiscriminant},
		{"padding", InvalidPaddingTarget(PhaseSerialize, 8, 4), PhaseSerialize, KindInvalidPaddingTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("phase: got %s, want %s", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("kind: got %s, want %s", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("message should not be empty")
			}
		})
	}
}
