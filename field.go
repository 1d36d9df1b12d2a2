package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

const maxChunkSize = 10 << 20 // 10M

// Value is the decoded content of an IFD entry.
// It is one of Byte, ASCII, Short, Long, Rational, Undefined or Unrecognized.
type Value interface {
	// DataType returns the on-disk type code of the value.
	DataType() DataType
	// Count returns the number of units of the value, as stored in the entry.
	Count() uint32

	// put serializes the units into p, which has room for exactly
	// Count() * DataType().Size() bytes.
	put(p []byte, order binary.ByteOrder)
}

type (
	// Byte is an array of 8-bit unsigned integers.
	Byte []byte
	// Undefined is an array of opaque bytes whose meaning depends on the tag.
	Undefined []byte
	// ASCII is a list of NUL terminated strings packed into a single entry.
	ASCII []string
	// Short is an array of 16-bit unsigned integers.
	Short []uint16
	// Long is an array of 32-bit unsigned integers.
	Long []uint32
	// Rational is an array of unsigned fractions.
	Rational []Fraction
)

// Fraction is a pair of 32-bit unsigned integers, numerator first.
type Fraction struct {
	Num   uint32
	Denom uint32
}

// Rat returns f as a *big.Rat, or nil when the denominator is zero.
func (f Fraction) Rat() *big.Rat {
	if f.Denom == 0 {
		return nil
	}
	return new(big.Rat).SetFrac64(int64(f.Num), int64(f.Denom))
}

// Float64 returns the nearest float64 value of f.
func (f Fraction) Float64() float64 {
	if r := f.Rat(); r != nil {
		v, _ := r.Float64()
		return v
	}
	if f.Num == 0 {
		return math.NaN()
	}
	return math.Inf(1)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Denom)
}

// Unrecognized is an entry whose type code is outside the TIFF 6.0 set.
// Its size is unknown, so Raw holds the four literal value-or-offset bytes,
// never dereferenced. It cannot be written back and is dropped on encoding.
type Unrecognized struct {
	Type DataType
	N    uint32
	Raw  [4]byte
}

func (Byte) DataType() DataType { return DTByte }
func (Undefined) DataType() DataType { return DTUndefined }
func (ASCII) DataType() DataType { return DTASCII }
func (Short) DataType() DataType { return DTShort }
func (Long) DataType() DataType { return DTLong }
func (Rational) DataType() DataType { return DTRational }
func (v Unrecognized) DataType() DataType { return v.Type }

func (v Byte) Count() uint32 { return uint32(len(v)) }
func (v Undefined) Count() uint32 { return uint32(len(v)) }
func (v Short) Count() uint32 { return uint32(len(v)) }
func (v Long) Count() uint32 { return uint32(len(v)) }
func (v Rational) Count() uint32 { return uint32(len(v)) }
func (v Unrecognized) Count() uint32 { return v.N }

// Count returns the number of bytes of the packed strings, one NUL each included.
func (v ASCII) Count() uint32 {
	var n uint32
	for _, s := range v {
		n += uint32(len(s)) + 1
	}
	return n
}

func (v Byte) put(p []byte, _ binary.ByteOrder) { copy(p, v) }
func (v Undefined) put(p []byte, _ binary.ByteOrder) { copy(p, v) }

func (v ASCII) put(p []byte, _ binary.ByteOrder) {
	for _, s := range v {
		n := copy(p, s)
		p[n] = 0
		p = p[n+1:]
	}
}

func (v Short) put(p []byte, order binary.ByteOrder) {
	for i, u := range v {
		order.PutUint16(p[2*i:], u)
	}
}

func (v Long) put(p []byte, order binary.ByteOrder) {
	for i, u := range v {
		order.PutUint32(p[4*i:], u)
	}
}

func (v Rational) put(p []byte, order binary.ByteOrder) {
	for i, f := range v {
		order.PutUint32(p[8*i:], f.Num)
		order.PutUint32(p[8*i+4:], f.Denom)
	}
}

func (v Unrecognized) put(p []byte, _ binary.ByteOrder) {}

func (v Unrecognized) String() string {
	return fmt.Sprintf("Unrecognized(type=%d, count=%d, raw=%#x)", uint16(v.Type), v.N, v.Raw[:])
}

// exceedsInline reports whether count units of dt do not fit in the 4-byte
// value-or-offset slot of an entry, in which case the slot holds a file offset.
// Decoding and encoding both rely on it.
func exceedsInline(dt DataType, count uint32) bool {
	switch dt {
	case DTByte, DTASCII, DTSByte, DTUndefined:
		return count > 4
	case DTShort, DTSShort:
		return count > 2
	case DTLong, DTSLong, DTFloat:
		return count > 1
	case DTRational, DTSRational, DTDouble:
		return true
	}
	// Unknown types have no computable size.
	return false
}

// decodeValue decodes the entry e, reading out-of-line data from r when the
// slot holds an offset. maxSize bounds the out-of-line payload.
func decodeValue(r io.ReadSeeker, order binary.ByteOrder, e rawEntry, maxSize uint64) (Value, error) {
	switch e.datatype {
	case DTByte, DTASCII, DTShort, DTLong, DTRational, DTUndefined:
	case DTSByte, DTSShort, DTSLong, DTSRational, DTFloat, DTDouble:
		return nil, UnsupportedError(fmt.Sprintf("data type %s in tag %d", e.datatype, e.tag))
	default:
		return Unrecognized{Type: e.datatype, N: e.count, Raw: e.valueOrOffset}, nil
	}

	n := uint64(e.count) * uint64(e.datatype.Size())
	var raw []byte
	if exceedsInline(e.datatype, e.count) {
		if maxSize > 0 && n > maxSize {
			return nil, FormatError(fmt.Sprintf("tag %d holds %d bytes, more than %d", e.tag, n, maxSize))
		}
		offset := order.Uint32(e.valueOrOffset[:])
		if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "could not seek to data of tag %d", e.tag)
		}
		var err error
		if raw, err = readFull(r, n); err != nil {
			return nil, errors.Wrapf(err, "could not read data of tag %d at %d", e.tag, offset)
		}
	} else {
		raw = e.valueOrOffset[:n]
	}

	return unmarshal(e.datatype, e.count, raw, order), nil
}

// unmarshal decodes count units of dt from raw, which holds exactly the units.
func unmarshal(dt DataType, count uint32, raw []byte, order binary.ByteOrder) Value {
	switch dt {
	case DTByte:
		v := make(Byte, count)
		copy(v, raw)
		return v
	case DTUndefined:
		v := make(Undefined, count)
		copy(v, raw)
		return v
	case DTASCII:
		v := make(ASCII, 0, 1)
		for _, s := range bytes.Split(raw, []byte{0}) {
			if len(s) > 0 {
				v = append(v, string(s))
			}
		}
		return v
	case DTShort:
		v := make(Short, count)
		for i := range v {
			v[i] = order.Uint16(raw[2*i:])
		}
		return v
	case DTLong:
		v := make(Long, count)
		for i := range v {
			v[i] = order.Uint32(raw[4*i:])
		}
		return v
	case DTRational:
		v := make(Rational, count)
		for i := range v {
			v[i] = Fraction{
				Num:   order.Uint32(raw[8*i:]),
				Denom: order.Uint32(raw[8*i+4:]),
			}
		}
		return v
	}
	panic(InternalError(fmt.Sprintf("unmarshal of data type %s", dt)))
}

// encodeValue builds the entry of v under tag. When the units exceed the
// inline slot they are written to w at its current position, and that
// position is recorded in the slot.
func encodeValue(w io.WriteSeeker, order binary.ByteOrder, tag uint16, v Value) (e rawEntry, err error) {
	if v == nil {
		return e, InternalError(fmt.Sprintf("tag %d has no value", tag))
	}
	if _, ok := v.(Unrecognized); ok {
		return e, InternalError(fmt.Sprintf("tag %d has an unrecognized type and cannot be encoded", tag))
	}

	e.tag = tag
	e.datatype = v.DataType()
	e.count = v.Count()
	n := uint64(e.count) * uint64(e.datatype.Size())
	if n > math.MaxUint32 {
		return e, FormatError(fmt.Sprintf("tag %d holds too much data", tag))
	}
	p := make([]byte, n)
	v.put(p, order)

	if !exceedsInline(e.datatype, e.count) {
		copy(e.valueOrOffset[:], p)
		return e, nil
	}

	offset, err := tell(w)
	if err != nil {
		return e, err
	}
	order.PutUint32(e.valueOrOffset[:], offset)
	if _, err = w.Write(p); err != nil {
		return e, errors.Wrapf(err, "could not write data of tag %d", tag)
	}
	return e, nil
}

// tell returns the current position of s as a file offset.
func tell(s io.Seeker) (uint32, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, errors.Wrap(err, "could not get position")
	}
	if pos > math.MaxUint32 {
		return 0, FormatError(fmt.Sprintf("offset %d does not fit in 32 bits", pos))
	}
	return uint32(pos), nil
}

// readFull reads exactly n bytes from r without allocating the whole slice
// ahead of time when n is large, so that a corrupt count fails on a short
// read rather than on a giant allocation.
func readFull(r io.Reader, n uint64) ([]byte, error) {
	if n < maxChunkSize {
		buf := make([]byte, n)
		_, err := io.ReadFull(r, buf)
		return buf, err
	}

	var buf []byte
	chunk := make([]byte, maxChunkSize)
	for n > 0 {
		next := n
		if next > maxChunkSize {
			next = maxChunkSize
		}
		if _, err := io.ReadFull(r, chunk[:next]); err != nil {
			return nil, err
		}
		buf = append(buf, chunk[:next]...)
		n -= next
	}
	return buf, nil
}
