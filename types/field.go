package types

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
)

const ErrFieldDataTruncated = errors.Error("field data is truncated")

// Field is one typed value of a row. A null field keeps its type and carries no value.
type Field struct {
	typeID  TypeID
	isNull  bool
	integer int32
	float   float32
	char    []byte
}

func NewIntField(val int32) *Field {
	return &Field{typeID: Integer, integer: val}
}

func NewFloatField(val float32) *Field {
	return &Field{typeID: Float, float: val}
}

func NewCharField(val string) *Field {
	return &Field{typeID: Char, char: []byte(val)}
}

func NewNullField(typeID TypeID) *Field {
	return &Field{typeID: typeID, isNull: true}
}

func (f *Field) GetTypeID() TypeID {
	return f.typeID
}

func (f *Field) IsNull() bool {
	return f.isNull
}

func (f *Field) ToInteger() int32 {
	return f.integer
}

func (f *Field) ToFloat() float32 {
	return f.float
}

func (f *Field) ToString() string {
	return string(f.char)
}

// GetSerializedSize returns the bytes SerializeTo writes. Null fields write nothing.
func (f *Field) GetSerializedSize() uint32 {
	if f.isNull {
		return 0
	}
	switch f.typeID {
	case Integer, Float:
		return 4
	case Char:
		return 4 + uint32(len(f.char))
	}
	panic(fmt.Sprintf("unsupported field type: %d", f.typeID))
}

// SerializeTo writes the value at the head of buf and returns the written byte count.
// char is encoded as its length (uint32) followed by the bytes.
func (f *Field) SerializeTo(buf []byte) uint32 {
	if f.isNull {
		return 0
	}
	common.SH_Assert(uint32(len(buf)) >= f.GetSerializedSize(), "buffer is too small for the field")
	switch f.typeID {
	case Integer:
		binary.LittleEndian.PutUint32(buf, uint32(f.integer))
		return 4
	case Float:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f.float))
		return 4
	case Char:
		binary.LittleEndian.PutUint32(buf, uint32(len(f.char)))
		copy(buf[4:], f.char)
		return 4 + uint32(len(f.char))
	}
	panic(fmt.Sprintf("unsupported field type: %d", f.typeID))
}

// DeserializeFieldFrom reads a value of typeID from the head of buf.
// It returns the field and the consumed byte count.
func DeserializeFieldFrom(buf []byte, typeID TypeID, isNull bool) (*Field, uint32, error) {
	if isNull {
		return NewNullField(typeID), 0, nil
	}
	switch typeID {
	case Integer:
		if len(buf) < 4 {
			return nil, 0, ErrFieldDataTruncated
		}
		return NewIntField(int32(binary.LittleEndian.Uint32(buf))), 4, nil
	case Float:
		if len(buf) < 4 {
			return nil, 0, ErrFieldDataTruncated
		}
		return NewFloatField(math.Float32frombits(binary.LittleEndian.Uint32(buf))), 4, nil
	case Char:
		if len(buf) < 4 {
			return nil, 0, ErrFieldDataTruncated
		}
		length := binary.LittleEndian.Uint32(buf)
		if uint64(len(buf)) < 4+uint64(length) {
			return nil, 0, ErrFieldDataTruncated
		}
		val := make([]byte, length)
		copy(val, buf[4:4+length])
		return &Field{typeID: Char, char: val}, 4 + length, nil
	}
	panic(fmt.Sprintf("unsupported field type: %d", typeID))
}

// Equals compares type, nullness and value.
func (f *Field) Equals(other *Field) bool {
	if f.typeID != other.typeID || f.isNull != other.isNull {
		return false
	}
	if f.isNull {
		return true
	}
	switch f.typeID {
	case Integer:
		return f.integer == other.integer
	case Float:
		return f.float == other.float
	case Char:
		return string(f.char) == string(other.char)
	}
	return false
}

func (f *Field) String() string {
	if f.isNull {
		return "<NULL>"
	}
	switch f.typeID {
	case Integer:
		return fmt.Sprintf("%d", f.integer)
	case Float:
		return fmt.Sprintf("%f", f.float)
	case Char:
		return string(f.char)
	}
	return "<invalid>"
}
