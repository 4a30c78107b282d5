package signal

import (
	"encoding/binary"
	"math"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// FieldType is the storage type of a parameter or result.
type FieldType uint8

const (
	FieldBool FieldType = iota + 1
	FieldInt32
	FieldUint32
	FieldDouble
)

// Size returns the number of bytes the field occupies in an instance block.
func (t FieldType) Size() int {
	switch t {
	case FieldBool:
		return 1
	case FieldInt32, FieldUint32:
		return 4
	case FieldDouble:
		return 8
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case FieldBool:
		return "bool"
	case FieldInt32:
		return "int32"
	case FieldUint32:
		return "uint32"
	case FieldDouble:
		return "double"
	default:
		return "unknown"
	}
}

func (t FieldType) isInteger() bool {
	return t == FieldBool || t == FieldInt32 || t == FieldUint32
}

// Field describes one named slot of an instance block.
type Field struct {
	Name   string
	Type   FieldType
	Offset int
	Result bool
}

// encodeInteger writes v into dst according to t. Range checks happen here
// so both producer and consumer views share them.
func encodeInteger(dst []byte, t FieldType, name string, v int64) error {
	switch t {
	case FieldBool:
		if v != 0 {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case FieldInt32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fault.Newf(fault.ValueIsOutsideOfInteger32Range, "value %d is outside of int32 range: %s", v, name)
		}
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	case FieldUint32:
		if v < 0 || v > math.MaxUint32 {
			return fault.Newf(fault.ValueIsOutsideOfUnsignedInteger32Range, "value %d is outside of uint32 range: %s", v, name)
		}
		binary.LittleEndian.PutUint32(dst, uint32(v))
	default:
		return fault.Newf(fault.CouldNotWriteIntegerToParameter, "could not write integer value to signal field: %s", name)
	}
	return nil
}

func decodeInteger(src []byte, t FieldType, name string) (int64, error) {
	switch t {
	case FieldBool:
		if src[0] != 0 {
			return 1, nil
		}
		return 0, nil
	case FieldInt32:
		return int64(int32(binary.LittleEndian.Uint32(src))), nil
	case FieldUint32:
		return int64(binary.LittleEndian.Uint32(src)), nil
	default:
		return 0, fault.Newf(fault.CouldNotReadIntegerFromParameter, "could not read integer value from signal field: %s", name)
	}
}

func encodeDouble(dst []byte, t FieldType, name string, v float64) error {
	if t != FieldDouble {
		return fault.Newf(fault.CouldNotWriteDoubleToParameter, "could not write double value to signal field: %s", name)
	}
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	return nil
}

func decodeDouble(src []byte, t FieldType, name string) (float64, error) {
	if t != FieldDouble {
		return 0, fault.Newf(fault.CouldNotReadDoubleFromParameter, "could not read double value from signal field: %s", name)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(src)), nil
}
