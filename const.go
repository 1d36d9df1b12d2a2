package tiffmeta

import "fmt"

// A tiff file contains one or more images. The metadata
// of each image is contained in an Image File Directory (IFD),
// which contains entries of 12 bytes each and is described
// on page 14-16 of TIFF 6.0. An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and length of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// The presence of a length means that each IFD is effectively an array.

const (
	leMagic = "II" // Byte order mark for little-endian files.
	beMagic = "MM" // Byte order mark for big-endian files.

	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	versionMagic = 42

	headerLen = 8  // Byte order mark, version and first IFD offset.
	entryLen  = 12 // Length of an IFD entry in bytes.
	nextLen   = 4  // Length of the trailing next IFD offset.
)

// DataType is the type code of an IFD entry (TIFF 6.0, p. 14-16).
type DataType uint16

// Data types.
const (
	DTByte      DataType = 1
	DTASCII     DataType = 2
	DTShort     DataType = 3
	DTLong      DataType = 4
	DTRational  DataType = 5
	DTSByte     DataType = 6
	DTUndefined DataType = 7
	DTSShort    DataType = 8
	DTSLong     DataType = 9
	DTSRational DataType = 10
	DTFloat     DataType = 11
	DTDouble    DataType = 12
)

// The length of one instance of each data type in bytes.
var lengths = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

var dtNames = [...]string{"", "BYTE", "ASCII", "SHORT", "LONG", "RATIONAL", "SBYTE", "UNDEFINED", "SSHORT", "SLONG", "SRATIONAL", "FLOAT", "DOUBLE"}

// known reports whether dt is one of the twelve TIFF 6.0 types.
func (dt DataType) known() bool {
	return dt >= DTByte && dt <= DTDouble
}

// Size returns the length in bytes of one unit of dt, or 0 for unknown types.
func (dt DataType) Size() uint32 {
	if !dt.known() {
		return 0
	}
	return lengths[dt]
}

// String implements Stringer.
func (dt DataType) String() string {
	if !dt.known() {
		return fmt.Sprintf("Unknown(%d)", uint16(dt))
	}
	return dtNames[dt]
}

// Tags used to locate strips and sub-directories (TIFF 6.0, p. 28-41).
// Name tables are left to callers.
const (
	TagNewSubFileType            uint16 = 254
	TagImageWidth                uint16 = 256
	TagImageLength               uint16 = 257
	TagBitsPerSample             uint16 = 258
	TagCompression               uint16 = 259
	TagPhotometricInterpretation uint16 = 262
	TagStripOffsets              uint16 = 273
	TagSamplesPerPixel           uint16 = 277
	TagRowsPerStrip              uint16 = 278
	TagStripByteCounts           uint16 = 279
	TagTileOffsets               uint16 = 324
	TagTileByteCounts            uint16 = 325
	TagSubIFDs                   uint16 = 330
)

// Compression types, modeled as numbers only.
const (
	CompressionNone     = 1
	CompressionLZW      = 5
	CompressionJPEG     = 7
	CompressionDeflate  = 8
	CompressionPackBits = 32773
)

// Photometric interpretation values (TIFF 6.0, p. 37).
const (
	PhotometricWhiteIsZero = 0
	PhotometricBlackIsZero = 1
	PhotometricRGB         = 2
	PhotometricPaletted    = 3
)
