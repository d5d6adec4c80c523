// Package layout parses annotated type descriptions into a validated
// layout model.
//
// The input is a RawType: the structural shape of a definition (field
// names and declared types in declaration order) plus the unparsed
// annotation text from struct tags and directive comments. Parse merges
// the annotations into TypeDefinition, FieldSpec, and BitFieldGroup
// values and runs every layout validation of the parse phase: attribute
// consistency, group attribute agreement, bit range bounds, pairwise
// overlap after bit numbering normalization, and boolean width.
//
// Bit ranges are declared in either LSB0 or MSB0 numbering and
// normalized to an absolute (shift, width) pair relative to the
// container's least significant bit, so everything downstream is
// convention independent.
//
// The model returned by Parse is immutable and fully validated; the ir
// and gen packages never re-check it.
package layout
