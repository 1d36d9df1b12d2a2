package tiffmeta

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// readByteOrder reads the two-byte byte order mark.
func readByteOrder(r io.Reader) (binary.ByteOrder, error) {
	var p [2]byte
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return nil, errors.Wrap(err, "could not read byte order mark")
	}
	switch string(p[:]) {
	case leMagic:
		return binary.LittleEndian, nil
	case beMagic:
		return binary.BigEndian, nil
	}
	return nil, EndianMagicError(p)
}

// checkVersion reads the version word and checks it is 42.
func checkVersion(r io.Reader, order binary.ByteOrder) error {
	var p [2]byte
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return errors.Wrap(err, "could not read version")
	}
	if v := order.Uint16(p[:]); v != versionMagic {
		return VersionError(v)
	}
	return nil
}

// writeHeader writes the byte order mark matching order and the version word.
func writeHeader(w io.Writer, order binary.ByteOrder) error {
	// Derive the mark from the actual arrangement, not from the identity of order.
	var p [4]byte
	order.PutUint16(p[2:], versionMagic)
	switch string(p[2:]) {
	case leHeader[2:]:
		copy(p[:2], leMagic)
	case beHeader[2:]:
		copy(p[:2], beMagic)
	default:
		return InternalError("unknown byte order")
	}
	_, err := w.Write(p[:])
	return errors.Wrap(err, "could not write header")
}
