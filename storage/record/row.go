package record

import (
	"encoding/binary"
	"fmt"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/table/schema"
	"github.com/ryogrid/HeapStoreDB/types"
)

const ErrRowMagicMismatch = errors.Error("row magic number mismatch")
const ErrRowDataTruncated = errors.Error("row data is truncated")
const ErrRowSchemaMismatch = errors.Error("row does not match the schema")

// Row is one record of a table heap: an ordered field list plus the RID it is stored at.
//
// Serialized format (little endian):
//
//	-----------------------------------------------------------------------------------------
//	| magic (4) | field count (4) | null flag (1) * field count | non null fields in order ... |
//	-----------------------------------------------------------------------------------------
type Row struct {
	rid    page.RID
	fields []*types.Field
}

func NewRow(fields []*types.Field) *Row {
	return &Row{page.InvalidRID, fields}
}

// NewRowWithRID creates an empty row to be filled by TableHeap.GetTuple
func NewRowWithRID(rid page.RID) *Row {
	return &Row{rid, nil}
}

func (r *Row) GetRID() page.RID {
	return r.rid
}

func (r *Row) SetRID(rid page.RID) {
	r.rid = rid
}

func (r *Row) GetField(idx uint32) *types.Field {
	return r.fields[idx]
}

func (r *Row) GetFields() []*types.Field {
	return r.fields
}

func (r *Row) GetFieldCount() uint32 {
	return uint32(len(r.fields))
}

func (r *Row) checkSchema(schema_ *schema.Schema) error {
	if r.GetFieldCount() != schema_.GetColumnCount() {
		return fmt.Errorf("%w: %d fields for %d columns", ErrRowSchemaMismatch, r.GetFieldCount(), schema_.GetColumnCount())
	}
	for ii, field := range r.fields {
		col := schema_.GetColumn(uint32(ii))
		if field.GetTypeID() != col.GetType() {
			return fmt.Errorf("%w: field %d is %s, column is %s", ErrRowSchemaMismatch, ii, field.GetTypeID(), col.GetType())
		}
		if field.IsNull() {
			if !col.IsNullable() {
				return fmt.Errorf("%w: field %d is null, column %s is not nullable", ErrRowSchemaMismatch, ii, col.GetColumnName())
			}
			continue
		}
		if col.GetType() == types.Char && uint32(len(field.ToString())) > col.GetLength() {
			return fmt.Errorf("%w: field %d has %d bytes, column %s holds %d", ErrRowSchemaMismatch, ii, len(field.ToString()), col.GetColumnName(), col.GetLength())
		}
	}
	return nil
}

func (r *Row) GetSerializedSize(schema_ *schema.Schema) uint32 {
	size := uint32(8) + r.GetFieldCount()
	for _, field := range r.fields {
		size += field.GetSerializedSize()
	}
	return size
}

// SerializeTo writes the row at the head of buf and returns the written byte count.
func (r *Row) SerializeTo(buf []byte, schema_ *schema.Schema) (uint32, error) {
	if err := r.checkSchema(schema_); err != nil {
		return 0, err
	}
	common.SH_Assert(uint32(len(buf)) >= r.GetSerializedSize(schema_), "buffer is too small for the row")

	binary.LittleEndian.PutUint32(buf, common.RowMagicNum)
	binary.LittleEndian.PutUint32(buf[4:], r.GetFieldCount())
	offset := uint32(8)
	for _, field := range r.fields {
		buf[offset] = 0
		if field.IsNull() {
			buf[offset] = 1
		}
		offset++
	}
	for _, field := range r.fields {
		offset += field.SerializeTo(buf[offset:])
	}
	return offset, nil
}

// DeserializeFrom replaces the fields of the row with the ones encoded in buf.
// The RID is kept. It returns the consumed byte count.
func (r *Row) DeserializeFrom(buf []byte, schema_ *schema.Schema) (uint32, error) {
	if len(buf) < 8 {
		return 0, ErrRowDataTruncated
	}
	if magic := binary.LittleEndian.Uint32(buf); magic != common.RowMagicNum {
		return 0, fmt.Errorf("%w: %d", ErrRowMagicMismatch, magic)
	}
	count := binary.LittleEndian.Uint32(buf[4:])
	if count != schema_.GetColumnCount() {
		return 0, fmt.Errorf("%w: %d fields for %d columns", ErrRowSchemaMismatch, count, schema_.GetColumnCount())
	}
	if uint64(len(buf)) < 8+uint64(count) {
		return 0, ErrRowDataTruncated
	}

	nullFlags := buf[8 : 8+count]
	offset := 8 + count
	fields := make([]*types.Field, 0, count)
	for ii := uint32(0); ii < count; ii++ {
		field, read, err := types.DeserializeFieldFrom(buf[offset:], schema_.GetColumn(ii).GetType(), nullFlags[ii] != 0)
		if err != nil {
			return 0, err
		}
		fields = append(fields, field)
		offset += read
	}
	r.fields = fields
	return offset, nil
}

func (r *Row) String() string {
	str := fmt.Sprintf("%s[", r.rid)
	for ii, field := range r.fields {
		if ii > 0 {
			str += ", "
		}
		str += field.String()
	}
	return str + "]"
}
