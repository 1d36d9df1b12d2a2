package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// littleEndianFile is a hand-built file holding one IFD with a SHORT entry
// and an entry of unrecognized type whose slot looks like an offset.
var littleEndianFile = []byte{
	'I', 'I', 0x2A, 0x00,
	0x08, 0x00, 0x00, 0x00,
	0x02, 0x00,
	0x01, 0x00, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x0F, 0x27, 0x64, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

func TestDecodeUnrecognizedEntry(t *testing.T) {
	rd, err := NewReader(bytes.NewReader(littleEndianFile))
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, rd.ByteOrder())

	directories := rd.Directories()
	require.Len(t, directories, 1)
	assert.Equal(t, NewDirectory(
		Field{Tag: 1, Value: Short{5}},
		Field{Tag: 2, Value: Unrecognized{Type: 9999, N: 100, Raw: [4]byte{0xFF, 0xFF, 0, 0}}},
	), directories[0])

	buf := NewBuffer(nil)
	require.NoError(t, Encode(buf, binary.LittleEndian, directories...))
	rewritten, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, rewritten[0].Len())
}

func TestDirectoriesIsACopy(t *testing.T) {
	rd, err := NewReader(bytes.NewReader(littleEndianFile))
	require.NoError(t, err)
	rd.Directories()[0] = nil
	assert.NotNil(t, rd.Directories()[0])
}

func TestHeaderErrors(t *testing.T) {
	data := append([]byte(nil), littleEndianFile...)
	data[0] = 'X'
	_, err := Decode(bytes.NewReader(data))
	assert.Equal(t, EndianMagicError{'X', 'I'}, err)

	data = append([]byte(nil), littleEndianFile...)
	data[2] = 0x2B
	_, err = Decode(bytes.NewReader(data))
	assert.Equal(t, VersionError(43), err)

	_, err = Decode(bytes.NewReader([]byte("MM")))
	assert.Error(t, err)
	assert.False(t, IsHeaderError(err))
}

func TestDecodeIsAllOrNothing(t *testing.T) {
	buf := NewBuffer(nil)
	d1, d2 := testDirectories()
	require.NoError(t, Encode(buf, binary.BigEndian, d1, d2))

	// Turn the rational of the second IFD into a SRATIONAL.
	data := buf.Bytes()
	next1 := binary.BigEndian.Uint32(data[4:8]) + 2 + 2*entryLen
	off2 := binary.BigEndian.Uint32(data[next1:])
	binary.BigEndian.PutUint16(data[off2+2+2:], uint16(DTSRational))

	directories, err := Decode(bytes.NewReader(data))
	assert.Nil(t, directories)
	assert.IsType(t, UnsupportedError(""), errors.Cause(err))
}

func TestDecodeTruncated(t *testing.T) {
	buf := NewBuffer(nil)
	d1, _ := testDirectories()
	require.NoError(t, Encode(buf, binary.LittleEndian, d1))
	data := buf.Bytes()

	for _, n := range []int{6, 12, len(data) - 1} {
		_, err := Decode(bytes.NewReader(data[:n]))
		assert.Error(t, err, "truncated at %d", n)
	}
}

func TestDecodeCycle(t *testing.T) {
	data := []byte{
		'M', 'M', 0x00, 0x2A,
		0x00, 0x00, 0x00, 0x08,
		0x00, 0x00, // No entry
		0x00, 0x00, 0x00, 0x08, // Next is itself
	}
	_, err := Decode(bytes.NewReader(data))
	assert.IsType(t, FormatError(""), errors.Cause(err))
}

func TestReaderOptions(t *testing.T) {
	buf := NewBuffer(nil)
	d1, d2 := testDirectories()
	require.NoError(t, Encode(buf, binary.LittleEndian, d1, d2))

	_, err := Decode(buf, MaxDirectories(1))
	assert.IsType(t, FormatError(""), errors.Cause(err))

	// The ASCII field of the first IFD holds 22 bytes.
	_, err = Decode(buf, MaxFieldSize(21))
	assert.IsType(t, FormatError(""), errors.Cause(err))

	directories, err := Decode(buf, MaxDirectories(0), MaxFieldSize(0))
	require.NoError(t, err)
	assert.Len(t, directories, 2)
}

func TestReadExternalChain(t *testing.T) {
	buf := NewBuffer(nil)
	wr, err := NewWriter(buf, binary.LittleEndian)
	require.NoError(t, err)
	d1, d2 := testDirectories()
	_, err = wr.WriteDirectory(d1)
	require.NoError(t, err)
	off2, err := wr.WriteDirectory(d2)
	require.NoError(t, err)

	rd, err := NewReader(buf)
	require.NoError(t, err)
	chain, err := rd.ReadExternalChain(off2)
	require.NoError(t, err)
	assert.Equal(t, []*Directory{d2}, chain)

	chain, err = rd.ReadExternalChain(0)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestReadRawRange(t *testing.T) {
	rd, err := NewReader(bytes.NewReader(littleEndianFile))
	require.NoError(t, err)

	p, err := rd.ReadRawRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte(leHeader), p)

	p, err = rd.ReadRawRange(0, 0)
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = rd.ReadRawRange(uint32(len(littleEndianFile)-2), 4)
	assert.Error(t, err)
	assert.Nil(t, p)
}

type onlyReader struct {
	io.Reader
}

func TestDecodeNonSeekable(t *testing.T) {
	buf := NewBuffer(nil)
	d1, d2 := testDirectories()
	require.NoError(t, Encode(buf, binary.BigEndian, d1, d2))

	directories, err := Decode(onlyReader{bytes.NewReader(buf.Bytes())})
	require.NoError(t, err)
	assert.Equal(t, []*Directory{d1, d2}, directories)
}

func TestDecodeNonSeekableOffsetPastEnd(t *testing.T) {
	header := []byte{'I', 'I', 42, 0, 0x00, 0xFF, 0xFF, 0xFF}

	_, err := Decode(onlyReader{bytes.NewReader(header)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IFD at 4294967040")
}

func TestOpen(t *testing.T) {
	buf := NewBuffer(nil)
	d1, d2 := testDirectories()
	require.NoError(t, Encode(buf, binary.LittleEndian, d1, d2))

	path := filepath.Join(t.TempDir(), "meta.tiff")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	rd, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []*Directory{d1, d2}, rd.Directories())
	assert.NoError(t, rd.Close())
	assert.NoError(t, rd.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.tiff"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.tiff")
	require.NoError(t, os.WriteFile(bad, []byte("not a tiff file"), 0644))
	_, err = Open(bad)
	assert.True(t, IsHeaderError(err))
}
