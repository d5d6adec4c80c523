package binstream

import (
	stderrors "errors"
	"testing"

	"github.com/petiaccja/sorbit/errors"
)

func TestMask(t *testing.T) {
	tests := []struct {
		n    uint
		want uint64
	}{
		{0, 0},
		{1, 1},
		{4, 0xF},
		{8, 0xFF},
		{63, 0x7FFFFFFFFFFFFFFF},
		{64, 0xFFFFFFFFFFFFFFFF},
	}
	for _, tt := range tests {
		if got := Mask(tt.n); got != tt.want {
			t.Errorf("Mask(%d): got %#x, want %#x", tt.n, got, tt.want)
		}
	}
}

func TestReverseBytes(t *testing.T) {
	tests := []struct {
		v     uint64
		width int
		want  uint64
	}{
		{0xAB, 1, 0xAB},
		{0x1234, 2, 0x3412},
		{0x12345678, 4, 0x78563412},
		{0x0102030405060708, 8, 0x0807060504030201},
	}
	for _, tt := range tests {
		if got := ReverseBytes(tt.v, tt.width); got != tt.want {
			t.Errorf("ReverseBytes(%#x, %d): got %#x, want %#x", tt.v, tt.width, got, tt.want)
		}
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		v    uint64
		n    uint
		want int64
	}{
		{0x5, 4, 5},
		{0xF, 4, -1},
		{0x8, 4, -8},
		{0x7F, 8, 127},
		{0x80, 8, -128},
		{0xFFFFFFFFFFFFFFFF, 64, -1},
	}
	for _, tt := range tests {
		if got := SignExtend(tt.v, tt.n); got != tt.want {
			t.Errorf("SignExtend(%#x, %d): got %d, want %d", tt.v, tt.n, got, tt.want)
		}
	}
}

func TestPackUint(t *testing.T) {
	if v, err := PackUint(0xF, 4, "T.f"); err != nil || v != 0xF {
		t.Errorf("PackUint(0xF, 4): got %#x, %v", v, err)
	}
	if v, err := PackUint(^uint64(0), 64, "T.f"); err != nil || v != ^uint64(0) {
		t.Errorf("PackUint(max, 64): got %#x, %v", v, err)
	}

	_, err := PackUint(0x10, 4, "T.f")
	if err == nil {
		t.Fatal("0x10 should not fit in 4 bits")
	}
	var serr *errors.Error
	if !stderrors.As(err, &serr) || serr.Kind != errors.KindValueOverflow {
		t.Errorf("got %v, want value_overflow", err)
	}
}

func TestPackInt(t *testing.T) {
	tests := []struct {
		v      int64
		n      uint
		want   uint64
		wantOK bool
	}{
		{5, 4, 0x5, true},
		{-1, 4, 0xF, true},
		{-8, 4, 0x8, true},
		{7, 4, 0x7, true},
		{8, 4, 0, false},
		{-9, 4, 0, false},
		{-1, 64, ^uint64(0), true},
	}
	for _, tt := range tests {
		got, err := PackInt(tt.v, tt.n, "T.f")
		if tt.wantOK {
			if err != nil {
				t.Errorf("PackInt(%d, %d): unexpected error %v", tt.v, tt.n, err)
				continue
			}
			if got != tt.want {
				t.Errorf("PackInt(%d, %d): got %#x, want %#x", tt.v, tt.n, got, tt.want)
			}
		} else if err == nil {
			t.Errorf("PackInt(%d, %d): expected overflow", tt.v, tt.n)
		}
	}
}

func TestPackBool(t *testing.T) {
	if PackBool(true) != 1 || PackBool(false) != 0 {
		t.Error("PackBool mapping is wrong")
	}
}
