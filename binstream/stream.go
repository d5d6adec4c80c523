package binstream

import (
	"github.com/petiaccja/sorbit/errors"
)

// Writer is a position-tracking byte sink for generated serializers.
//
// A Writer created with New grows as needed. A Writer created with
// NewFixed never reallocates and fails with buffer_exhausted once its
// capacity is spent, which makes it usable where dynamic allocation is
// off the table.
type Writer struct {
	buf   []byte
	limit int // -1 = growable
}

// New returns a growable Writer.
func New() *Writer {
	return &Writer{limit: -1}
}

// NewFixed returns a Writer bounded by the capacity of buf. The buffer's
// contents are overwritten from the start.
func NewFixed(buf []byte) *Writer {
	return &Writer{buf: buf[:0], limit: cap(buf)}
}

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the Writer's
// internal buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reset discards all written bytes, keeping the underlying storage.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) ensure(n int) error {
	if w.limit >= 0 && len(w.buf)+n > w.limit {
		return errors.BufferExhausted(errors.PhaseSerialize, len(w.buf), n, w.limit-len(w.buf))
	}
	return nil
}

// WriteBytes writes the low width bytes of v, most significant first.
// width must be between 1 and 8.
func (w *Writer) WriteBytes(width int, v uint64) error {
	if err := w.ensure(width); err != nil {
		return err
	}
	for i := width - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(v>>(8*i)))
	}
	return nil
}

// PadTo writes zero bytes until the position reaches target. Padding
// behind the current position is an error.
func (w *Writer) PadTo(target int) error {
	if target < len(w.buf) {
		return errors.InvalidPaddingTarget(errors.PhaseSerialize, len(w.buf), target)
	}
	if err := w.ensure(target - len(w.buf)); err != nil {
		return err
	}
	for len(w.buf) < target {
		w.buf = append(w.buf, 0)
	}
	return nil
}

// AlignTo writes zero bytes until the position is a multiple of n.
func (w *Writer) AlignTo(n int) error {
	if n <= 1 {
		return nil
	}
	rem := len(w.buf) % n
	if rem == 0 {
		return nil
	}
	return w.PadTo(len(w.buf) + n - rem)
}

// Reader is a position-tracking byte source for generated deserializers.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadBytes consumes width bytes and returns them packed into a uint64,
// first byte most significant. width must be between 1 and 8.
func (r *Reader) ReadBytes(width int) (uint64, error) {
	if r.pos+width > len(r.data) {
		return 0, errors.BufferExhausted(errors.PhaseDeserialize, r.pos, width, len(r.data)-r.pos)
	}
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(r.data[r.pos+i])
	}
	r.pos += width
	return v, nil
}

// SkipTo advances the position to target, discarding padding bytes.
func (r *Reader) SkipTo(target int) error {
	if target < r.pos {
		return errors.InvalidPaddingTarget(errors.PhaseDeserialize, r.pos, target)
	}
	if target > len(r.data) {
		return errors.BufferExhausted(errors.PhaseDeserialize, r.pos, target-r.pos, len(r.data)-r.pos)
	}
	r.pos = target
	return nil
}

// AlignTo advances the position to the next multiple of n.
func (r *Reader) AlignTo(n int) error {
	if n <= 1 {
		return nil
	}
	rem := r.pos % n
	if rem == 0 {
		return nil
	}
	return r.SkipTo(r.pos + n - rem)
}
