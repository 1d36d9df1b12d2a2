package tiffmeta

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

// A Writer streams a TIFF file one IFD at a time.
//
// Each IFD is written after its out-of-line data, then linked from the
// previous next IFD offset (or the header) by seeking back to patch it.
// The last written next IFD offset stays zero and ends the chain.
// Raw strip data may be interleaved between IFDs with WriteRawBytes.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w         io.WriteSeeker
	byteOrder binary.ByteOrder
	strict    bool

	pendingPatch int64 // Position of the offset slot waiting for the next IFD position.
}

// A WriterOption configures a Writer.
type WriterOption func(*Writer)

// Strict makes WriteDirectory reject directories that fail Validate instead
// of silently dropping fields of unrecognized type.
func Strict() WriterOption {
	return func(w *Writer) {
		w.strict = true
	}
}

// NewWriter writes the header for order to w, with a zero first IFD offset
// that the first WriteDirectory fills in. w should be positioned at the start
// of the file, since every offset is absolute.
func NewWriter(w io.WriteSeeker, order binary.ByteOrder, opts ...WriterOption) (*Writer, error) {
	wr := &Writer{
		w:         w,
		byteOrder: order,
	}
	for _, opt := range opts {
		opt(wr)
	}

	if err := writeHeader(w, order); err != nil {
		return nil, err
	}
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "could not get position")
	}
	if err = writeOffset(w, order, 0); err != nil {
		return nil, err
	}
	wr.pendingPatch = pos
	return wr, nil
}

// Encode writes a whole TIFF file holding directories to w.
func Encode(w io.WriteSeeker, order binary.ByteOrder, directories ...*Directory) error {
	wr, err := NewWriter(w, order)
	if err != nil {
		return err
	}
	for _, d := range directories {
		if _, err = wr.WriteDirectory(d); err != nil {
			return err
		}
	}
	return nil
}

// ByteOrder returns the byte order of the file being written.
func (wr *Writer) ByteOrder() binary.ByteOrder {
	return wr.byteOrder
}

// WriteDirectory writes the out-of-line data of d, then d itself, and links it
// to the chain. It returns the offset of the IFD. The stream is left right
// after the IFD, ready for the next write.
func (wr *Writer) WriteDirectory(d *Directory) (uint32, error) {
	if wr.strict {
		if err := d.Validate(); err != nil {
			return 0, err
		}
	}

	// Write out the fields
	raw, err := d.encode(wr.w, wr.byteOrder)
	if err != nil {
		return 0, err
	}

	// The IFD starts here, this is the value of the previous pointer.
	position, err := tell(wr.w)
	if err != nil {
		return 0, err
	}
	if err = raw.writeTo(wr.w, wr.byteOrder); err != nil {
		return 0, err
	}

	// Placeholder for the next IFD offset, zero until another IFD is written.
	next, err := tell(wr.w)
	if err != nil {
		return 0, err
	}
	if err = writeOffset(wr.w, wr.byteOrder, 0); err != nil {
		return 0, err
	}
	end := int64(next) + nextLen

	if _, err = wr.w.Seek(wr.pendingPatch, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "could not seek to previous IFD offset")
	}
	if err = writeOffset(wr.w, wr.byteOrder, position); err != nil {
		return 0, err
	}
	wr.pendingPatch = int64(next)

	if _, err = wr.w.Seek(end, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "could not seek past IFD")
	}
	return position, nil
}

// WriteRawBytes writes p at the current position without interpretation and
// returns where it landed, typically to fill StripOffsets and StripByteCounts.
func (wr *Writer) WriteRawBytes(p []byte) (offset, length uint32, err error) {
	if uint64(len(p)) > math.MaxUint32 {
		return 0, 0, FormatError(fmt.Sprintf("%d bytes do not fit in a strip", len(p)))
	}
	if offset, err = tell(wr.w); err != nil {
		return 0, 0, err
	}
	if _, err = wr.w.Write(p); err != nil {
		return 0, 0, errors.Wrap(err, "could not write raw bytes")
	}
	return offset, uint32(len(p)), nil
}
