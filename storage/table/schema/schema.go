// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/storage/table/column"
)

const ErrSchemaMagicMismatch = errors.Error("schema magic number mismatch")
const ErrSchemaDataTruncated = errors.Error("schema data is truncated")

// Schema is the ordered column list rows of a table are read and written with.
type Schema struct {
	columns []*column.Column
}

func NewSchema(columns []*column.Column) *Schema {
	schema := &Schema{}
	schema.columns = append(schema.columns, columns...)
	return schema
}

func (s *Schema) GetColumn(colIndex uint32) *column.Column {
	return s.columns[colIndex]
}

func (s *Schema) GetColumnCount() uint32 {
	return uint32(len(s.columns))
}

func (s *Schema) GetColumns() []*column.Column {
	return s.columns
}

// GetColIndex returns the index of the column named columnName
func (s *Schema) GetColIndex(columnName string) (uint32, bool) {
	for i := uint32(0); i < s.GetColumnCount(); i++ {
		if s.columns[i].GetColumnName() == columnName {
			return i, true
		}
	}
	return 0, false
}

// Serialized format: | magic (4) | column count (4) | columns ... |
func (s *Schema) GetSerializedSize() uint32 {
	size := uint32(8)
	for _, col := range s.columns {
		size += col.GetSerializedSize()
	}
	return size
}

func (s *Schema) SerializeTo(buf []byte) uint32 {
	common.SH_Assert(uint32(len(buf)) >= s.GetSerializedSize(), "buffer is too small for the schema")
	binary.LittleEndian.PutUint32(buf, common.SchemaMagicNum)
	binary.LittleEndian.PutUint32(buf[4:], s.GetColumnCount())
	offset := uint32(8)
	for _, col := range s.columns {
		offset += col.SerializeTo(buf[offset:])
	}
	return offset
}

// DeserializeSchemaFrom restores a schema and returns the consumed byte count
func DeserializeSchemaFrom(buf []byte) (*Schema, uint32, error) {
	if len(buf) < 8 {
		return nil, 0, ErrSchemaDataTruncated
	}
	if magic := binary.LittleEndian.Uint32(buf); magic != common.SchemaMagicNum {
		return nil, 0, fmt.Errorf("%w: %d", ErrSchemaMagicMismatch, magic)
	}
	count := binary.LittleEndian.Uint32(buf[4:])
	offset := uint32(8)
	columns := make([]*column.Column, 0, count)
	for ii := uint32(0); ii < count; ii++ {
		col, read, err := column.DeserializeColumnFrom(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		columns = append(columns, col)
		offset += read
	}
	return NewSchema(columns), offset, nil
}
