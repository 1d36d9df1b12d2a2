package tiffmeta

import (
	"io"
	"slices"

	"github.com/pkg/errors"
)

// Buffer is an in-memory io.ReadWriteSeeker and io.ReaderAt.
//
// A Buffer built with newBufferFrom pulls bytes from its source lazily, only
// as far as reads and seeks require. Writing past the end grows the buffer,
// zero filling any gap.
type Buffer struct {
	r   io.Reader
	buf []byte
	off int64
}

// NewBuffer returns a Buffer holding p. The Buffer takes ownership of p.
func NewBuffer(p []byte) *Buffer {
	return &Buffer{buf: p}
}

func newBufferFrom(r io.Reader) *Buffer {
	return &Buffer{r: r, buf: make([]byte, 0, 1024)}
}

// fill reads data from b.r until the buffer contains at least end bytes.
// The buffer grows by at most maxChunkSize at a time, so an offset past the
// end of the source never allocates more than the source holds.
func (b *Buffer) fill(end int) error {
	for b.r != nil && len(b.buf) < end {
		m := len(b.buf)
		n := min(end-m, maxChunkSize)
		b.buf = slices.Grow(b.buf, n)[:m+n]
		k, err := io.ReadFull(b.r, b.buf[m:])
		b.buf = b.buf[:m+k]
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			b.r = nil // Source exhausted.
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// drain pulls everything left in the source.
func (b *Buffer) drain() error {
	if b.r == nil {
		return nil
	}
	rest, err := io.ReadAll(b.r)
	b.buf = append(b.buf, rest...)
	b.r = nil
	return err
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("tiffmeta: negative offset")
	}
	o := int(off)
	end := o + len(p)
	if int64(end) != off+int64(len(p)) {
		return 0, io.ErrUnexpectedEOF
	}
	if err := b.fill(end); err != nil {
		return 0, err
	}
	if o >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[o:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Read implements io.Reader.
func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.ReadAt(p, b.off)
	b.off += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

// Write implements io.Writer, overwriting or extending the contents at the
// current offset.
func (b *Buffer) Write(p []byte) (int, error) {
	end := int(b.off) + len(p)
	if err := b.fill(end); err != nil {
		return 0, err
	}
	if m := len(b.buf); end > m {
		if end > cap(b.buf) {
			newbuf := make([]byte, end, 2*end)
			copy(newbuf, b.buf)
			b.buf = newbuf
		} else {
			b.buf = b.buf[:end]
			clear(b.buf[m:])
		}
	}
	n := copy(b.buf[b.off:], p)
	b.off += int64(n)
	return n, nil
}

// Seek implements io.Seeker.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		if err := b.drain(); err != nil {
			return b.off, errors.Wrap(err, "could not reach end of source")
		}
		abs = int64(len(b.buf)) + offset
	default:
		return b.off, errors.New("tiffmeta: invalid whence")
	}
	if abs < 0 {
		return b.off, errors.New("tiffmeta: negative position")
	}
	b.off = abs
	return abs, nil
}

// Len returns the number of bytes held, pulling the rest of the source if any.
func (b *Buffer) Len() int {
	b.drain()
	return len(b.buf)
}

// Bytes returns the whole content of the buffer.
func (b *Buffer) Bytes() []byte {
	b.drain()
	return b.buf
}

// readSeeker returns r itself when it already supports seeking.
func readSeeker(r io.Reader) io.ReadSeeker {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs
	}
	return newBufferFrom(r)
}
