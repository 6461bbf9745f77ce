/*
   This file handles the element types of stream payloads and routines that
   read and write single values from a slice of bytes.
*/

package vox

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DataType is a unique ID for each element type, e.g., a uint8 or a float32.
// T_unknown is the zero value and means the type has not been specified.
type DataType uint8

const (
	T_unknown DataType = iota
	T_uint8
	T_int8
	T_uint16
	T_int16
	T_uint32
	T_int32
	T_uint64
	T_int64
	T_float32
	T_float64
)

var typeBytes = map[DataType]int32{
	T_uint8:   1,
	T_int8:    1,
	T_uint16:  2,
	T_int16:   2,
	T_uint32:  4,
	T_int32:   4,
	T_uint64:  8,
	T_int64:   8,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[DataType]string{
	T_unknown: "unknown",
	T_uint8:   "uint8",
	T_int8:    "int8",
	T_uint16:  "uint16",
	T_int16:   "int16",
	T_uint32:  "uint32",
	T_int32:   "int32",
	T_uint64:  "uint64",
	T_int64:   "int64",
	T_float32: "float32",
	T_float64: "float64",
}

// DataTypeBytes returns the # of bytes for a given type, or 0 for T_unknown.
func DataTypeBytes(t DataType) int32 {
	return typeBytes[t]
}

// ParseDataType returns the DataType for a name like "uint16".
func ParseDataType(name string) (DataType, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == lower {
			return t, nil
		}
	}
	return T_unknown, fmt.Errorf("unknown data type %q", name)
}

func (t DataType) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Known returns true if the type has been specified.
func (t DataType) Known() bool {
	_, found := typeBytes[t]
	return found
}

// Decode reads one little-endian value of this type from the start of b.
func (t DataType) Decode(b []byte) float64 {
	switch t {
	case T_uint8:
		return float64(b[0])
	case T_int8:
		return float64(int8(b[0]))
	case T_uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case T_int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case T_uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case T_int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case T_uint64:
		return float64(binary.LittleEndian.Uint64(b))
	case T_int64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case T_float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case T_float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		panic(fmt.Sprintf("Decode() called with unexpected value type: %s", t))
	}
}

// Encode writes v as one little-endian value of this type at the start of b.
// Integer types truncate toward zero.
func (t DataType) Encode(b []byte, v float64) {
	switch t {
	case T_uint8:
		b[0] = uint8(v)
	case T_int8:
		b[0] = byte(int8(v))
	case T_uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case T_int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case T_uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case T_int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case T_uint64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	case T_int64:
		binary.LittleEndian.PutUint64(b, uint64(int64(v)))
	case T_float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case T_float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("Encode() called with unexpected value type: %s", t))
	}
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (t *DataType) UnmarshalText(b []byte) error {
	dt, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*t = dt
	return nil
}
