package tiffmeta

import "github.com/pkg/errors"

func (d *Directory) lookup(tag uint16) (Value, error) {
	v, ok := d.Get(tag)
	if !ok || v == nil {
		return nil, MissingTagError(tag)
	}
	return v, nil
}

// Bytes returns the content of a BYTE or UNDEFINED field.
func (d *Directory) Bytes(tag uint16) ([]byte, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case Byte:
		return v, nil
	case Undefined:
		return v, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// Strings returns the strings of an ASCII field.
func (d *Directory) Strings(tag uint16) ([]string, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(ASCII); ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// Text returns the first string of an ASCII field.
func (d *Directory) Text(tag uint16) (string, error) {
	s, err := d.Strings(tag)
	if err != nil {
		return "", err
	}
	if len(s) == 0 {
		return "", errors.Wrapf(ErrInsufficientData, "tag %d", tag)
	}
	return s[0], nil
}

// Shorts returns the content of a SHORT field.
func (d *Directory) Shorts(tag uint16) ([]uint16, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(Short); ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// Longs returns the content of a LONG field.
func (d *Directory) Longs(tag uint16) ([]uint32, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	if l, ok := v.(Long); ok {
		return l, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// Rationals returns the content of a RATIONAL field.
func (d *Directory) Rationals(tag uint16) ([]Fraction, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	if r, ok := v.(Rational); ok {
		return r, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// Uints returns the content of a BYTE, SHORT or LONG field widened to uint32.
// Many tags, such as StripOffsets, may be stored as either SHORT or LONG.
func (d *Directory) Uints(tag uint16) ([]uint32, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case Byte:
		u := make([]uint32, len(v))
		for i := range v {
			u[i] = uint32(v[i])
		}
		return u, nil
	case Short:
		u := make([]uint32, len(v))
		for i := range v {
			u[i] = uint32(v[i])
		}
		return u, nil
	case Long:
		return v, nil
	}
	return nil, errors.Wrapf(ErrWrongDataType, "tag %d is %s", tag, v.DataType())
}

// FirstUint returns the first unit of a BYTE, SHORT or LONG field.
func (d *Directory) FirstUint(tag uint16) (uint32, error) {
	u, err := d.Uints(tag)
	if err != nil {
		return 0, err
	}
	if len(u) == 0 {
		return 0, errors.Wrapf(ErrInsufficientData, "tag %d", tag)
	}
	return u[0], nil
}

// Float returns the unit at index of a numeric field converted to float64.
func (d *Directory) Float(tag uint16, index int) (float64, error) {
	v, err := d.lookup(tag)
	if err != nil {
		return 0, err
	}
	if r, ok := v.(Rational); ok {
		if index < 0 || index >= len(r) {
			return 0, errors.Wrapf(ErrInsufficientData, "tag %d index %d", tag, index)
		}
		return r[index].Float64(), nil
	}

	u, err := d.Uints(tag)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(u) {
		return 0, errors.Wrapf(ErrInsufficientData, "tag %d index %d", tag, index)
	}
	return float64(u[index]), nil
}
