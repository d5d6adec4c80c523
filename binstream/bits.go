package binstream

import (
	"math/bits"

	"github.com/petiaccja/sorbit/errors"
)

// Mask returns a value with the low n bits set. n must be at most 64.
func Mask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// ReverseBytes reverses the byte order of the low width bytes of v.
// The bytes above width must be zero.
func ReverseBytes(v uint64, width int) uint64 {
	return bits.ReverseBytes64(v) >> (64 - 8*width)
}

// SignExtend interprets the low n bits of v as a two's complement value.
func SignExtend(v uint64, n uint) int64 {
	if n == 0 || n >= 64 {
		return int64(v)
	}
	return int64(v<<(64-n)) >> (64 - n)
}

// PackUint narrows v to an n-bit representation. The value must fit, a
// value wider than n bits fails with value_overflow citing path.
func PackUint(v uint64, n uint, path string) (uint64, error) {
	if v&^Mask(n) != 0 {
		return 0, errors.ValueOverflow(path, v, n)
	}
	return v, nil
}

// PackInt narrows v to an n-bit two's complement representation. Values
// outside [-2^(n-1), 2^(n-1)-1] fail with value_overflow citing path.
func PackInt(v int64, n uint, path string) (uint64, error) {
	if n == 0 {
		return 0, errors.ValueOverflow(path, v, n)
	}
	if n < 64 {
		lo := int64(-1) << (n - 1)
		hi := int64(1)<<(n-1) - 1
		if v < lo || v > hi {
			return 0, errors.ValueOverflow(path, v, n)
		}
	}
	return uint64(v) & Mask(n), nil
}

// PackBool maps a bool to its single-bit representation.
func PackBool(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
