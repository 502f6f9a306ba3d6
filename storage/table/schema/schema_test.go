package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/HeapStoreDB/storage/table/column"
	"github.com/ryogrid/HeapStoreDB/types"
)

func newTestSchema() *Schema {
	return NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, 0, false, true),
		column.NewCharColumn("Name", 64, 1, true, false),
		column.NewColumn("score", types.Float, 2, true, false),
	})
}

func TestSchemaSerializeRoundTrip(t *testing.T) {
	s := newTestSchema()
	buf := make([]byte, s.GetSerializedSize())
	written := s.SerializeTo(buf)
	assert.Equal(t, s.GetSerializedSize(), written)

	restored, read, err := DeserializeSchemaFrom(buf)
	assert.NoError(t, err)
	assert.Equal(t, written, read)
	assert.Equal(t, s.GetColumnCount(), restored.GetColumnCount())
	for ii := uint32(0); ii < s.GetColumnCount(); ii++ {
		assert.Equal(t, *s.GetColumn(ii), *restored.GetColumn(ii))
	}
	assert.Equal(t, "name", restored.GetColumn(1).GetColumnName())
	assert.Equal(t, uint32(64), restored.GetColumn(1).GetLength())
	assert.True(t, restored.GetColumn(0).IsUnique())
	assert.False(t, restored.GetColumn(0).IsNullable())
}

func TestSchemaGetColIndex(t *testing.T) {
	s := newTestSchema()
	idx, ok := s.GetColIndex("score")
	assert.True(t, ok)
	assert.Equal(t, uint32(2), idx)
	_, ok = s.GetColIndex("missing")
	assert.False(t, ok)
}

func TestSchemaMagicMismatch(t *testing.T) {
	s := newTestSchema()
	buf := make([]byte, s.GetSerializedSize())
	s.SerializeTo(buf)

	corrupted := append([]byte{}, buf...)
	corrupted[0]++
	_, _, err := DeserializeSchemaFrom(corrupted)
	assert.True(t, errors.Is(err, ErrSchemaMagicMismatch))

	// break the magic of the second column
	corrupted = append([]byte{}, buf...)
	corrupted[8+s.GetColumn(0).GetSerializedSize()]++
	_, _, err = DeserializeSchemaFrom(corrupted)
	assert.True(t, errors.Is(err, column.ErrColumnMagicMismatch))

	_, _, err = DeserializeSchemaFrom(buf[:len(buf)-3])
	assert.True(t, errors.Is(err, column.ErrColumnDataTruncated))
}
