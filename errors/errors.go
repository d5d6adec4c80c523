package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseParse       Phase = "parse"       // annotation parsing and validation
	PhaseLower       Phase = "lower"       // AST to IR lowering
	PhaseGenerate    Phase = "generate"    // code generation
	PhaseSerialize   Phase = "serialize"   // runtime stream writes
	PhaseDeserialize Phase = "deserialize" // runtime stream reads
)

// Kind categorizes the error
type Kind string

const (
	// Layout errors, diagnosed at compile time and fatal to the type
	// being processed.
	KindInconsistentBitFieldAttributes Kind = "inconsistent_bit_field_attributes"
	KindConflictingGroupAttributes     Kind = "conflicting_group_attributes"
	KindBitRangeOutOfBounds            Kind = "bit_range_out_of_bounds"
	KindOverlappingBitRanges           Kind = "overlapping_bit_ranges"
	KindWidthMismatchForBoolean        Kind = "width_mismatch_for_boolean"
	KindRecursiveLayout                Kind = "recursive_layout"
	KindUnresolvedNestedType           Kind = "unresolved_nested_type"

	// Annotation surface errors.
	KindUnknownAttribute      Kind = "unknown_attribute"
	KindInvalidAttributeValue Kind = "invalid_attribute_value"
	KindMissingAttribute      Kind = "missing_attribute"
	KindUnsupported           Kind = "unsupported"

	// Stream errors, surfaced through generated code at runtime.
	KindBufferExhausted      Kind = "buffer_exhausted"
	KindValueOverflow        Kind = "value_overflow"
	KindInvalidDiscriminant  Kind = "invalid_discriminant"
	KindInvalidPaddingTarget Kind = "invalid_padding_target"
)

// Error is the structured error type used throughout the compiler and the
// runtime stream library.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the type/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownAttribute creates an error for an unrecognized annotation key
func UnknownAttribute(path []string, key string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnknownAttribute,
		Path:   path,
		Detail: fmt.Sprintf("unknown attribute %q", key),
	}
}

// InvalidAttributeValue creates an error for a malformed annotation value
func InvalidAttributeValue(path []string, key, value, expected string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidAttributeValue,
		Path:   path,
		Detail: fmt.Sprintf("attribute %s has value %q, expected %s", key, value, expected),
		Value:  value,
	}
}

// MissingAttribute creates an error for a required annotation that was
// never supplied.
func MissingAttribute(path []string, key string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMissingAttribute,
		Path:   path,
		Detail: fmt.Sprintf("required attribute %s is not specified", key),
	}
}

// OverlappingBitRanges creates an error citing the first offending field pair
func OverlappingBitRanges(path []string, fieldA, fieldB string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindOverlappingBitRanges,
		Path:   path,
		Detail: fmt.Sprintf("fields %s and %s claim overlapping bits", fieldA, fieldB),
	}
}

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		Detail: what,
	}
}

// RecursiveLayout creates an error for a cycle in nested type references
func RecursiveLayout(path []string, typeName string) *Error {
	return &Error{
		Phase:  PhaseLower,
		Kind:   KindRecursiveLayout,
		Path:   path,
		Detail: fmt.Sprintf("type %s transitively contains itself, its layout has unbounded size", typeName),
	}
}

// UnresolvedNestedType creates an error for a field referencing a type that
// was never registered.
func UnresolvedNestedType(path []string, typeName string) *Error {
	return &Error{
		Phase:  PhaseLower,
		Kind:   KindUnresolvedNestedType,
		Path:   path,
		Detail: fmt.Sprintf("no layout known for nested type %s", typeName),
	}
}

// BufferExhausted creates a stream exhaustion error
func BufferExhausted(phase Phase, pos, need, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBufferExhausted,
		Detail: fmt.Sprintf("need %d bytes at position %d, %d available", need, pos, have),
	}
}

// ValueOverflow creates an error for a value that does not fit its claimed width
func ValueOverflow(path string, value any, bits uint) *Error {
	return &Error{
		Phase:  PhaseSerialize,
		Kind:   KindValueOverflow,
		Path:   []string{path},
		Detail: fmt.Sprintf("value %v does not fit in %d bits", value, bits),
		Value:  value,
	}
}

// InvalidDiscriminant creates an error for an unknown enum discriminant on the wire
func InvalidDiscriminant(path []string, disc uint64) *Error {
	return &Error{
		Phase:  PhaseDeserialize,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d does not select any variant", disc),
		Value:  disc,
	}
}

// InvalidPaddingTarget creates an error for a pad/skip target behind the
// current stream position.
func InvalidPaddingTarget(phase Phase, pos, target int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidPaddingTarget,
		Detail: fmt.Sprintf("cannot pad to position %d, stream is already at %d", target, pos),
	}
}
