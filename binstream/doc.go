// Package binstream is the byte stream the generated serialization code
// runs against.
//
// Writer and Reader expose fixed-width byte operations over a growable or
// fixed buffer and track the stream position so generated code can honor
// offset, alignment, and total-length padding. Both sides return
// structured errors from the errors package instead of panicking, and
// NewFixed makes the Writer usable without any dynamic allocation.
//
// Multi-byte values cross the boundary most significant byte first;
// generated code applies little-endian byte order by reversing bytes with
// ReverseBytes before storing or after loading a container.
//
// The bit helpers (Mask, SignExtend, PackUint, PackInt, PackBool) are the
// shift-and-mask vocabulary the code generator emits calls to. PackUint
// and PackInt are overflow checked: a field value that does not fit its
// claimed bit width fails serialization rather than being silently
// truncated.
package binstream
