package tiffmeta

// Resources:
// https://www.fileformat.info/format/tiff/egff.htm
// http://www.awaresystems.be/imaging/tiff.html
// https://www.awaresystems.be/imaging/tiff/specification/TIFF6.pdf (p. 13-16, header and IFD layout)
// https://www.awaresystems.be/imaging/tiff/specification/TIFFPM6.pdf (SubIFD Trees)

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

const (
	defaultMaxDirectories = 4096
	defaultMaxFieldSize   = 256 << 20 // 256M
)

// A Reader holds every IFD of a TIFF file, decoded when the Reader is built.
//
// The decoded directories never touch the stream again. ReadExternalChain and
// ReadRawRange seek the underlying stream, so they must not run concurrently
// on the same Reader.
type Reader struct {
	r         io.ReadSeeker
	closer    io.Closer
	byteOrder binary.ByteOrder

	maxDirectories int
	maxFieldSize   uint64

	directories []*Directory
}

// A ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// MaxDirectories bounds the number of IFDs in a chain. Zero means no bound.
func MaxDirectories(n int) ReaderOption {
	return func(r *Reader) {
		r.maxDirectories = n
	}
}

// MaxFieldSize bounds the number of out-of-line bytes of a single field.
// Zero means no bound.
func MaxFieldSize(n uint64) ReaderOption {
	return func(r *Reader) {
		r.maxFieldSize = n
	}
}

// NewReader reads the header of the TIFF file in r and decodes the whole IFD
// chain. Decoding is all or nothing: any error discards every directory.
func NewReader(r io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	rd := &Reader{
		r:              r,
		maxDirectories: defaultMaxDirectories,
		maxFieldSize:   defaultMaxFieldSize,
	}
	for _, opt := range opts {
		opt(rd)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "could not seek to header")
	}
	order, err := readByteOrder(r)
	if err != nil {
		return nil, err
	}
	if err = checkVersion(r, order); err != nil {
		return nil, err
	}
	rd.byteOrder = order

	first, err := readOffset(r, order)
	if err != nil {
		return nil, errors.Wrap(err, "could not read first IFD offset")
	}
	if rd.directories, err = rd.readChain(first); err != nil {
		return nil, err
	}
	return rd, nil
}

// Open maps the file at path in memory and reads it with NewReader.
// The Reader must be closed to release the mapping.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not map file")
	}
	rd, err := NewReader(io.NewSectionReader(m, 0, int64(m.Len())), opts...)
	if err != nil {
		m.Close()
		return nil, err
	}
	rd.closer = m
	return rd, nil
}

// Decode reads every IFD of the TIFF file in r. A reader that cannot seek
// is buffered in memory as far as the IFDs require.
func Decode(r io.Reader, opts ...ReaderOption) ([]*Directory, error) {
	rd, err := NewReader(readSeeker(r), opts...)
	if err != nil {
		return nil, err
	}
	return rd.Directories(), nil
}

func (rd *Reader) readChain(first uint32) ([]*Directory, error) {
	chain, err := followChain(rd.r, rd.byteOrder, first, rd.maxDirectories)
	if err != nil {
		return nil, err
	}

	directories := make([]*Directory, 0, len(chain))
	for i, raw := range chain {
		d, err := decodeDirectory(rd.r, rd.byteOrder, raw, rd.maxFieldSize)
		if err != nil {
			return nil, errors.Wrapf(err, "IFD #%d", i)
		}
		directories = append(directories, d)
	}
	return directories, nil
}

// ByteOrder returns the byte order of the file.
func (rd *Reader) ByteOrder() binary.ByteOrder {
	return rd.byteOrder
}

// Directories returns the IFDs of the main chain in file order.
func (rd *Reader) Directories() []*Directory {
	directories := make([]*Directory, len(rd.directories))
	copy(directories, rd.directories)
	return directories
}

// ReadExternalChain decodes the chain of IFDs whose first IFD is at offset,
// such as the payload of a SubIFDs tag.
func (rd *Reader) ReadExternalChain(offset uint32) ([]*Directory, error) {
	return rd.readChain(offset)
}

// ReadRawRange returns length bytes at offset, without interpretation.
// It is meant for strip and tile payloads.
func (rd *Reader) ReadRawRange(offset, length uint32) ([]byte, error) {
	if _, err := rd.r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "could not seek to %d", offset)
	}
	p, err := readFull(rd.r, uint64(length))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %d bytes at %d", length, offset)
	}
	return p, nil
}

// Close releases the file mapped by Open. It is a no-op otherwise.
func (rd *Reader) Close() error {
	if rd.closer == nil {
		return nil
	}
	err := rd.closer.Close()
	rd.closer = nil
	return err
}
