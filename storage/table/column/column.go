// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package column

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/types"
)

const ErrColumnMagicMismatch = errors.Error("column magic number mismatch")
const ErrColumnDataTruncated = errors.Error("column data is truncated")

// Column describes one attribute of a row.
// length is 4 for int and float and the declared maximum length for char.
type Column struct {
	columnName string
	columnType types.TypeID
	length     uint32
	tableInd   uint32 // position of the column in its table
	nullable   bool
	unique     bool
}

// Serialized format (little endian):
//
//	| magic (4) | name length (4) | name | type (4) | length (4) | table index (4) | nullable (1) | unique (1) |
const sizeColumnFixedPart = 4 + 4 + 4 + 4 + 4 + 1 + 1

func NewColumn(name string, columnType types.TypeID, tableInd uint32, nullable bool, unique bool) *Column {
	common.SH_Assert(columnType == types.Integer || columnType == types.Float, "char column needs a length. use NewCharColumn")
	return &Column{strings.ToLower(name), columnType, columnType.Size(), tableInd, nullable, unique}
}

func NewCharColumn(name string, length uint32, tableInd uint32, nullable bool, unique bool) *Column {
	return &Column{strings.ToLower(name), types.Char, length, tableInd, nullable, unique}
}

func (c *Column) GetColumnName() string {
	return c.columnName
}

func (c *Column) GetType() types.TypeID {
	return c.columnType
}

func (c *Column) GetLength() uint32 {
	return c.length
}

func (c *Column) GetTableInd() uint32 {
	return c.tableInd
}

func (c *Column) IsNullable() bool {
	return c.nullable
}

func (c *Column) IsUnique() bool {
	return c.unique
}

func (c *Column) GetSerializedSize() uint32 {
	return sizeColumnFixedPart + uint32(len(c.columnName))
}

func (c *Column) SerializeTo(buf []byte) uint32 {
	common.SH_Assert(uint32(len(buf)) >= c.GetSerializedSize(), "buffer is too small for the column")
	offset := uint32(0)
	putUint32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[offset:], v)
		offset += 4
	}
	putBool := func(v bool) {
		buf[offset] = 0
		if v {
			buf[offset] = 1
		}
		offset++
	}

	putUint32(common.ColumnMagicNum)
	putUint32(uint32(len(c.columnName)))
	offset += uint32(copy(buf[offset:], c.columnName))
	putUint32(uint32(c.columnType))
	putUint32(c.length)
	putUint32(c.tableInd)
	putBool(c.nullable)
	putBool(c.unique)
	return offset
}

// DeserializeColumnFrom restores a column and returns the consumed byte count
func DeserializeColumnFrom(buf []byte) (*Column, uint32, error) {
	if len(buf) < sizeColumnFixedPart {
		return nil, 0, ErrColumnDataTruncated
	}
	if magic := binary.LittleEndian.Uint32(buf); magic != common.ColumnMagicNum {
		return nil, 0, fmt.Errorf("%w: %d", ErrColumnMagicMismatch, magic)
	}
	nameLen := binary.LittleEndian.Uint32(buf[4:])
	if uint64(len(buf)) < uint64(sizeColumnFixedPart)+uint64(nameLen) {
		return nil, 0, ErrColumnDataTruncated
	}

	offset := uint32(8)
	name := string(buf[offset : offset+nameLen])
	offset += nameLen
	c := &Column{columnName: name}
	c.columnType = types.TypeID(binary.LittleEndian.Uint32(buf[offset:]))
	c.length = binary.LittleEndian.Uint32(buf[offset+4:])
	c.tableInd = binary.LittleEndian.Uint32(buf[offset+8:])
	c.nullable = buf[offset+12] != 0
	c.unique = buf[offset+13] != 0
	return c, offset + 14, nil
}
