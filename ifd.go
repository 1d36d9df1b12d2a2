package tiffmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Field is a tag and its decoded value.
type Field struct {
	Tag   uint16
	Value Value
}

// Directory is a decoded Image File Directory: an ordered list of fields.
// Every offset is already dereferenced, so a Directory does not depend on
// the stream it was read from.
//
// Tags need not be unique in a Directory read from a file; accessors act on
// the first field carrying the tag.
type Directory struct {
	Fields []Field
}

// NewDirectory returns a Directory holding fields in the given order.
func NewDirectory(fields ...Field) *Directory {
	return &Directory{Fields: fields}
}

// Len returns the number of fields.
func (d *Directory) Len() int {
	return len(d.Fields)
}

func (d *Directory) index(tag uint16) int {
	for i := range d.Fields {
		if d.Fields[i].Tag == tag {
			return i
		}
	}
	return -1
}

// Get returns the value of the first field with the given tag.
// Values are slices shared with d, so their elements may be edited in place.
// Use Set to change a value's length or type.
func (d *Directory) Get(tag uint16) (Value, bool) {
	if i := d.index(tag); i >= 0 {
		return d.Fields[i].Value, true
	}
	return nil, false
}

// Set replaces the value of the first field with the given tag,
// or appends a new field.
func (d *Directory) Set(tag uint16, v Value) {
	if i := d.index(tag); i >= 0 {
		d.Fields[i].Value = v
		return
	}
	d.Fields = append(d.Fields, Field{Tag: tag, Value: v})
}

// Delete removes every field with the given tag and reports whether
// any was present.
func (d *Directory) Delete(tag uint16) bool {
	fields := d.Fields[:0]
	for _, f := range d.Fields {
		if f.Tag != tag {
			fields = append(fields, f)
		}
	}
	deleted := len(fields) != len(d.Fields)
	d.Fields = fields
	return deleted
}

// Tags returns the tags in field order.
func (d *Directory) Tags() []uint16 {
	tags := make([]uint16, 0, len(d.Fields))
	for _, f := range d.Fields {
		tags = append(tags, f.Tag)
	}
	return tags
}

// Sort orders the fields by ascending tag, the order they are written in.
func (d *Directory) Sort() {
	sort.SliceStable(d.Fields, func(i, j int) bool {
		return d.Fields[i].Tag < d.Fields[j].Tag
	})
}

// Clone returns a deep copy of d.
func (d *Directory) Clone() *Directory {
	c := &Directory{Fields: make([]Field, len(d.Fields))}
	for i, f := range d.Fields {
		c.Fields[i] = Field{Tag: f.Tag, Value: cloneValue(f.Value)}
	}
	return c
}

func cloneValue(v Value) Value {
	switch v := v.(type) {
	case Byte:
		return append(Byte{}, v...)
	case Undefined:
		return append(Undefined{}, v...)
	case ASCII:
		return append(ASCII{}, v...)
	case Short:
		return append(Short{}, v...)
	case Long:
		return append(Long{}, v...)
	case Rational:
		return append(Rational{}, v...)
	}
	return v
}

// Validate reports every field that would not survive a write and read back
// unchanged: duplicate tags, values of unrecognized type (dropped on write),
// and ASCII strings that are empty or contain NUL (split differently on read).
// The returned error is a *multierror.Error.
func (d *Directory) Validate() error {
	var result *multierror.Error
	seen := make(map[uint16]bool, len(d.Fields))

	for _, f := range d.Fields {
		if seen[f.Tag] {
			result = multierror.Append(result, FormatError(fmt.Sprintf("duplicate tag %d", f.Tag)))
		}
		seen[f.Tag] = true

		switch v := f.Value.(type) {
		case nil:
			result = multierror.Append(result, FormatError(fmt.Sprintf("tag %d has no value", f.Tag)))
		case Unrecognized:
			result = multierror.Append(result, UnsupportedError(fmt.Sprintf("tag %d has unrecognized data type %d", f.Tag, uint16(v.Type))))
		case ASCII:
			for i, s := range v {
				if s == "" || strings.IndexByte(s, 0) >= 0 {
					result = multierror.Append(result, FormatError(fmt.Sprintf("tag %d string %d is empty or contains NUL", f.Tag, i)))
				}
			}
		}
	}
	return result.ErrorOrNil()
}

// decodeDirectory decodes every entry of raw, dereferencing offsets through r.
func decodeDirectory(r io.ReadSeeker, order binary.ByteOrder, raw *rawDirectory, maxSize uint64) (*Directory, error) {
	d := &Directory{Fields: make([]Field, 0, len(raw.entries))}
	for _, e := range raw.entries {
		v, err := decodeValue(r, order, e, maxSize)
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, Field{Tag: e.tag, Value: v})
	}
	return d, nil
}

// encode writes the out-of-line data of every field to w at its current
// position and returns the raw directory referring to it. Fields of
// unrecognized type are dropped and the rest are sorted by ascending tag.
func (d *Directory) encode(w io.WriteSeeker, order binary.ByteOrder) (*rawDirectory, error) {
	fields := make([]Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if _, ok := f.Value.(Unrecognized); ok {
			continue
		}
		fields = append(fields, f)
	}
	// The IFD has to be written with the tags in ascending order.
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Tag < fields[j].Tag
	})

	raw := &rawDirectory{entries: make([]rawEntry, 0, len(fields))}
	for _, f := range fields {
		e, err := encodeValue(w, order, f.Tag, f.Value)
		if err != nil {
			return nil, err
		}
		raw.entries = append(raw.entries, e)
	}
	return raw, nil
}

func (d *Directory) String() string {
	buf := bytes.NewBufferString("")
	for _, f := range d.Fields {
		if f.Value == nil {
			buf.WriteString(fmt.Sprintf("%d: <nil>\n", f.Tag))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d (%s): %v\n", f.Tag, f.Value.DataType(), f.Value))
	}
	return buf.String()
}
