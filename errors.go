package tiffmeta

import (
	"fmt"

	"github.com/pkg/errors"
)

// A FormatError reports that the input is not a valid TIFF file.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("tiff: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("tiff: unsupported feature: %s", string(e))
}

// An InternalError reports that an internal error was encountered.
type InternalError string

func (e InternalError) Error() string {
	return fmt.Sprintf("tiff: internal error: %s", string(e))
}

// An EndianMagicError reports that the first two bytes of the file are
// neither "II" nor "MM".
type EndianMagicError [2]byte

func (e EndianMagicError) Error() string {
	return fmt.Sprintf("tiff: bad endian magic number: %#x", e[:])
}

// A VersionError reports that the version word following the byte order
// mark is not 42.
type VersionError uint16

func (e VersionError) Error() string {
	return fmt.Sprintf("tiff: bad magic number: %d", uint16(e))
}

// Errors returned by the typed accessors of Directory.
var (
	ErrWrongDataType    = errors.New("tiff: tag has wrong data type")
	ErrInsufficientData = errors.New("tiff: tag contains insufficient data")
)

// A MissingTagError reports that a directory has no entry for the tag.
type MissingTagError uint16

func (e MissingTagError) Error() string {
	return fmt.Sprintf("tiff: missing tag %#X", uint16(e))
}

// IsHeaderError reports whether err was caused by a malformed header.
func IsHeaderError(err error) bool {
	switch errors.Cause(err).(type) {
	case EndianMagicError, VersionError:
		return true
	}
	return false
}
