// Package sorbit compiles attribute-driven binary layout descriptions
// into Go serialization code with bit-exact control over field widths,
// bit numbering, byte order, and sub-byte packing.
//
// Types opt in through //sorbit: directives and sorbit struct tags in
// ordinary Go source. The pipeline runs in three stages: the
// annotations parse into a validated layout model (package layout),
// the model lowers into per-type op programs in which every bit-level
// read and write is explicit (package ir), and the programs render to
// Go source against the runtime stream in package binstream (package
// gen). Compile and CompileSource run all three.
//
// The cmd/sorbit-gen command wraps the pipeline for go:generate use.
package sorbit
