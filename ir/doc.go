// Package ir lowers validated layout models into ordered op programs.
//
// Each type lowers to two sequences of single-assignment ops, one for
// serialize and one for deserialize, in which every bit-level read and
// write is explicit. A bit-field group becomes exactly one container
// access no matter how many fields share it: on serialize the member
// inserts are batched into an accumulator and stored once, on
// deserialize the container is loaded once and every member extracts
// from that value. Byte order conversion happens between the stream
// access and the bit operations, so claimed bit positions always refer
// to the order-corrected logical value.
//
// The Lowerer caches programs by type name. Fields whose type is itself
// an annotated type resolve through the cache; a reference cycle is a
// recursive_layout error because no fixed layout exists for unbounded
// nesting.
//
// EvalSerialize and EvalDeserialize interpret a program directly
// against a binstream, with values carried in map[string]any. The
// evaluator and the gen package's emitted code implement the same op
// semantics; the evaluator is what the round-trip tests and the
// interactive inspector run.
package ir
