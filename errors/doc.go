// Package errors provides structured error types for the sorbit compiler
// and its runtime stream library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The Error type includes rich context: the type/field
// path, the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindConflictingGroupAttributes).
//		Path("Header", "flags").
//		Detail("bit_numbering redefined with a different value").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OverlappingBitRanges([]string{"Header"}, "a", "b")
//	err := errors.BufferExhausted(errors.PhaseDeserialize, 4, 2, 0)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
