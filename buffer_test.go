package tiffmeta

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteSeek(t *testing.T) {
	buf := NewBuffer(nil)
	n, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	pos, err := buf.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
	_, err = buf.Write([]byte("WORLD"))
	require.NoError(t, err)
	assert.Equal(t, "hello WORLD", string(buf.Bytes()))

	// Writing past the end zero fills the gap.
	_, err = buf.Seek(2, io.SeekEnd)
	require.NoError(t, err)
	_, err = buf.Write([]byte{'!'})
	require.NoError(t, err)
	assert.Equal(t, "hello WORLD\x00\x00!", string(buf.Bytes()))

	pos, err = buf.Seek(-3, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(11), pos)

	_, err = buf.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = buf.Seek(0, 42)
	assert.Error(t, err)
}

func TestBufferGapDoesNotLeak(t *testing.T) {
	backing := []byte("abcdefgh")
	buf := NewBuffer(backing[:2])
	_, err := buf.Seek(4, io.SeekStart)
	require.NoError(t, err)
	_, err = buf.Write([]byte{'z'})
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 'z'}, buf.Bytes())
}

func TestBufferRead(t *testing.T) {
	buf := NewBuffer([]byte("0123456789"))
	p := make([]byte, 4)

	n, err := buf.Read(p)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(p[:n]))

	n, err = buf.ReadAt(p, 8)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "89", string(p[:n]))

	_, err = buf.ReadAt(p, 10)
	assert.Equal(t, io.EOF, err)
	_, err = buf.ReadAt(p, -1)
	assert.Error(t, err)

	all, err := io.ReadAll(buf)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(all))
}

func TestBufferLazySource(t *testing.T) {
	src := bytes.NewBufferString("0123456789")
	buf := newBufferFrom(src)

	p := make([]byte, 3)
	_, err := buf.ReadAt(p, 2)
	require.NoError(t, err)
	assert.Equal(t, "234", string(p))
	assert.Equal(t, 5, src.Len()) // Only what was needed was pulled.

	end, err := buf.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(10), end)
	assert.Equal(t, 0, src.Len())
	assert.Equal(t, 10, buf.Len())
}

func TestBufferFillPastSourceEnd(t *testing.T) {
	buf := newBufferFrom(bytes.NewReader([]byte("0123456789")))

	_, err := buf.Seek(0xFFFFFF00, io.SeekStart)
	require.NoError(t, err)
	_, err = buf.Read(make([]byte, 2))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 10, buf.Len())
	assert.LessOrEqual(t, cap(buf.Bytes()), 2*maxChunkSize)
}

func TestReadSeeker(t *testing.T) {
	r := bytes.NewReader(nil)
	assert.Equal(t, r, readSeeker(r))
	assert.IsType(t, &Buffer{}, readSeeker(bytes.NewBufferString("x")))
}
