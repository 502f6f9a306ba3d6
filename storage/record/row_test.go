package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/table/column"
	"github.com/ryogrid/HeapStoreDB/storage/table/schema"
	"github.com/ryogrid/HeapStoreDB/types"
)

func newTestSchema() *schema.Schema {
	return schema.NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, 0, false, true),
		column.NewCharColumn("name", 32, 1, true, false),
		column.NewColumn("score", types.Float, 2, true, false),
	})
}

func TestRowRoundTrip(t *testing.T) {
	s := newTestSchema()
	cases := []struct {
		name   string
		fields []*types.Field
		size   uint32
	}{
		{"all set", []*types.Field{types.NewIntField(7), types.NewCharField("alice"), types.NewFloatField(1.5)}, 8 + 3 + 4 + 9 + 4},
		{"null char", []*types.Field{types.NewIntField(8), types.NewNullField(types.Char), types.NewFloatField(-2)}, 8 + 3 + 4 + 4},
		{"all null but id", []*types.Field{types.NewIntField(9), types.NewNullField(types.Char), types.NewNullField(types.Float)}, 8 + 3 + 4},
		{"empty char", []*types.Field{types.NewIntField(10), types.NewCharField(""), types.NewNullField(types.Float)}, 8 + 3 + 4 + 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			row := NewRow(c.fields)
			assert.Equal(t, c.size, row.GetSerializedSize(s))

			buf := make([]byte, 128)
			written, err := row.SerializeTo(buf, s)
			assert.NoError(t, err)
			assert.Equal(t, c.size, written)

			restored := NewRowWithRID(page.RID{PageId: 3, SlotNum: 4})
			read, err := restored.DeserializeFrom(buf[:written], s)
			assert.NoError(t, err)
			assert.Equal(t, written, read)
			assert.Equal(t, page.RID{PageId: 3, SlotNum: 4}, restored.GetRID())
			assert.Equal(t, row.GetFieldCount(), restored.GetFieldCount())
			for ii := uint32(0); ii < row.GetFieldCount(); ii++ {
				assert.True(t, row.GetField(ii).Equals(restored.GetField(ii)), "field %d: %v != %v", ii, row.GetField(ii), restored.GetField(ii))
			}
		})
	}
}

func TestRowRejectsBadInput(t *testing.T) {
	s := newTestSchema()
	row := NewRow([]*types.Field{types.NewIntField(1), types.NewCharField("bob"), types.NewFloatField(0)})
	buf := make([]byte, 64)
	written, err := row.SerializeTo(buf, s)
	assert.NoError(t, err)

	corrupted := append([]byte{}, buf[:written]...)
	corrupted[1] ^= 0xFF
	_, err = NewRowWithRID(page.InvalidRID).DeserializeFrom(corrupted, s)
	assert.True(t, errors.Is(err, ErrRowMagicMismatch))

	_, err = NewRowWithRID(page.InvalidRID).DeserializeFrom(buf[:written-2], s)
	assert.Equal(t, types.ErrFieldDataTruncated, err)

	_, err = NewRowWithRID(page.InvalidRID).DeserializeFrom(buf[:5], s)
	assert.Equal(t, ErrRowDataTruncated, err)

	wrongType := NewRow([]*types.Field{types.NewCharField("x"), types.NewCharField("bob"), types.NewFloatField(0)})
	_, err = wrongType.SerializeTo(buf, s)
	assert.True(t, errors.Is(err, ErrRowSchemaMismatch))

	tooShort := NewRow([]*types.Field{types.NewIntField(1)})
	_, err = tooShort.SerializeTo(buf, s)
	assert.True(t, errors.Is(err, ErrRowSchemaMismatch))

	nullID := NewRow([]*types.Field{types.NewNullField(types.Integer), types.NewCharField("bob"), types.NewFloatField(0)})
	_, err = nullID.SerializeTo(buf, s)
	assert.True(t, errors.Is(err, ErrRowSchemaMismatch))

	longName := NewRow([]*types.Field{types.NewIntField(1), types.NewCharField(strings.Repeat("n", 33)), types.NewFloatField(0)})
	_, err = longName.SerializeTo(make([]byte, 128), s)
	assert.True(t, errors.Is(err, ErrRowSchemaMismatch))

	// a char of exactly the column length is fine
	fullName := NewRow([]*types.Field{types.NewIntField(1), types.NewCharField(strings.Repeat("n", 32)), types.NewFloatField(0)})
	_, err = fullName.SerializeTo(make([]byte, 128), s)
	assert.NoError(t, err)
}
