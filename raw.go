package tiffmeta

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

// rawEntry is an IFD entry as stored on disk. The interpretation of
// valueOrOffset depends only on exceedsInline(datatype, count).
type rawEntry struct {
	tag           uint16
	datatype      DataType
	count         uint32 // Number of units, not bytes.
	valueOrOffset [4]byte
}

// rawDirectory is an IFD as stored on disk, without its next IFD offset.
type rawDirectory struct {
	entries []rawEntry
}

func readEntry(r io.Reader, order binary.ByteOrder) (e rawEntry, err error) {
	var p [entryLen]byte
	if _, err = io.ReadFull(r, p[:]); err != nil {
		return e, errors.Wrap(err, "could not read IFD entry")
	}
	e.tag = order.Uint16(p[0:2])
	e.datatype = DataType(order.Uint16(p[2:4]))
	e.count = order.Uint32(p[4:8])
	copy(e.valueOrOffset[:], p[8:12])
	return e, nil
}

func (e rawEntry) put(p []byte, order binary.ByteOrder) {
	order.PutUint16(p[0:2], e.tag)
	order.PutUint16(p[2:4], uint16(e.datatype))
	order.PutUint32(p[4:8], e.count)
	copy(p[8:12], e.valueOrOffset[:])
}

func readRawDirectory(r io.Reader, order binary.ByteOrder) (*rawDirectory, error) {
	// The first two bytes contain the number of entries (12 bytes each).
	var p [2]byte
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return nil, errors.Wrap(err, "could not read IFD entry count")
	}
	n := int(order.Uint16(p[:]))

	d := &rawDirectory{entries: make([]rawEntry, 0, n)}
	for i := 0; i < n; i++ {
		e, err := readEntry(r, order)
		if err != nil {
			return nil, err
		}
		d.entries = append(d.entries, e)
	}
	return d, nil
}

// writeTo writes the entry count and the entries, excluding the next IFD offset.
func (d *rawDirectory) writeTo(w io.Writer, order binary.ByteOrder) error {
	if len(d.entries) > math.MaxUint16 {
		return FormatError(fmt.Sprintf("too many IFD entries: %d", len(d.entries)))
	}

	// All IFD entries are written in one chunk.
	p := make([]byte, 2+entryLen*len(d.entries))
	order.PutUint16(p[0:2], uint16(len(d.entries)))
	for i, e := range d.entries {
		e.put(p[2+i*entryLen:], order)
	}
	_, err := w.Write(p)
	return errors.Wrap(err, "could not write IFD")
}

func readOffset(r io.Reader, order binary.ByteOrder) (uint32, error) {
	var p [nextLen]byte
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return 0, errors.Wrap(err, "could not read IFD offset")
	}
	return order.Uint32(p[:]), nil
}

func writeOffset(w io.Writer, order binary.ByteOrder, offset uint32) error {
	var p [nextLen]byte
	order.PutUint32(p[:], offset)
	_, err := w.Write(p[:])
	return errors.Wrap(err, "could not write IFD offset")
}

// followChain reads the chain of IFDs whose first element is at offset first,
// following next IFD offsets until zero. An offset seen twice is a cycle.
// limit bounds the number of IFDs; zero means no bound.
func followChain(r io.ReadSeeker, order binary.ByteOrder, first uint32, limit int) ([]*rawDirectory, error) {
	var chain []*rawDirectory
	seen := make(map[uint32]bool)

	for offset := first; offset != 0; {
		at := offset
		if seen[offset] {
			return nil, FormatError(fmt.Sprintf("IFD cycle detected at %d", offset))
		}
		seen[offset] = true
		if limit > 0 && len(chain) >= limit {
			return nil, FormatError(fmt.Sprintf("more than %d IFDs in chain", limit))
		}

		if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "could not seek to IFD at %d", at)
		}
		d, err := readRawDirectory(r, order)
		if err != nil {
			return nil, errors.Wrapf(err, "IFD at %d", at)
		}
		chain = append(chain, d)

		// The next IFD offset directly follows the entries.
		if offset, err = readOffset(r, order); err != nil {
			return nil, errors.Wrapf(err, "IFD at %d", at)
		}
	}
	return chain, nil
}
