package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/record"
	"github.com/ryogrid/HeapStoreDB/types"
)

func newTestTablePage(id types.PageID) *TablePage {
	tp := CastPageAsTablePage(page.NewEmpty(id))
	tp.Init(id, types.InvalidPageID, nil)
	return tp
}

func TestTablePageInit(t *testing.T) {
	tp := newTestTablePage(7)

	assert.Equal(t, types.PageID(7), tp.GetTablePageId())
	assert.Equal(t, types.InvalidPageID, tp.GetPrevPageId())
	assert.Equal(t, types.InvalidPageID, tp.GetNextPageId())
	assert.Equal(t, uint32(0), tp.GetTupleCount())
	assert.Equal(t, uint32(common.PageSize), tp.GetFreeSpacePointer())
	assert.Equal(t, uint32(common.PageSize)-sizeTablePageHeader, tp.GetFreeSpaceRemaining())

	_, ok := tp.GetFirstTupleRid()
	assert.False(t, ok)
	assert.Nil(t, CastPageAsTablePage(nil))
}

func TestTablePageSlots(t *testing.T) {
	schema_ := newNameSchema()
	tp := newTestTablePage(0)

	names := []string{"aa", "bbbb", "cccccc", "dddddddd"}
	rids := make([]page.RID, 0)
	for i, name := range names {
		rid, err := tp.InsertTuple(newNameRow(i, name), schema_, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, page.RID{PageId: 0, SlotNum: uint32(i)}, rid)
		rids = append(rids, rid)
	}
	// tuples are packed from the end of the page
	assert.Equal(t, uint32(common.PageSize)-uint32(4*18+2+4+6+8), tp.GetFreeSpacePointer())

	t.Run("next skips deleted", func(t *testing.T) {
		assert.NoError(t, tp.MarkDelete(rids[1], nil, nil))
		next, ok := tp.GetNextTupleRid(rids[0])
		assert.True(t, ok)
		assert.Equal(t, rids[2], next)
		assert.Equal(t, ErrTupleDeleted, tp.MarkDelete(rids[1], nil, nil))
		assert.NoError(t, tp.RollbackDelete(rids[1], nil, nil))
		next, _ = tp.GetNextTupleRid(rids[0])
		assert.Equal(t, rids[1], next)
	})

	t.Run("apply delete compacts", func(t *testing.T) {
		fspBefore := tp.GetFreeSpacePointer()
		assert.NoError(t, tp.ApplyDelete(rids[1], nil, nil))
		assert.Equal(t, fspBefore+18+4, tp.GetFreeSpacePointer())
		assert.Equal(t, uint32(0), tp.GetTupleSize(1))
		assert.Equal(t, ErrTupleDeleted, tp.ApplyDelete(rids[1], nil, nil))
		assert.Equal(t, ErrTupleDeleted, tp.RollbackDelete(rids[1], nil, nil))

		for _, i := range []int{0, 2, 3} {
			row := record.NewRowWithRID(page.InvalidRID)
			assert.NoError(t, tp.GetTuple(rids[i], schema_, row))
			assert.Equal(t, names[i], row.GetField(1).ToString())
			assert.Equal(t, rids[i], row.GetRID())
		}
		assert.Equal(t, ErrTupleDeleted, tp.GetTuple(rids[1], schema_, record.NewRowWithRID(page.InvalidRID)))
		assert.Equal(t, ErrSlotOutOfRange, tp.GetTuple(page.RID{PageId: 0, SlotNum: 9}, schema_, record.NewRowWithRID(page.InvalidRID)))
	})

	t.Run("empty slot is reused", func(t *testing.T) {
		rid, err := tp.InsertTuple(newNameRow(9, "reused"), schema_, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, rids[1], rid)
		assert.Equal(t, uint32(4), tp.GetTupleCount())
	})

	t.Run("update grows and shrinks", func(t *testing.T) {
		assert.NoError(t, tp.UpdateTuple(newNameRow(0, "a much longer name"), schema_, rids[0], nil, nil))
		assert.NoError(t, tp.UpdateTuple(newNameRow(3, ""), schema_, rids[3], nil, nil))
		expected := []string{"a much longer name", "reused", "cccccc", ""}
		for i, name := range expected {
			row := record.NewRowWithRID(page.InvalidRID)
			assert.NoError(t, tp.GetTuple(rids[i], schema_, row))
			assert.Equal(t, name, row.GetField(1).ToString())
		}
		assert.Equal(t, ErrEmptyTuple, tp.UpdateTuple(record.NewRow(nil), schema_, rids[0], nil, nil))
	})
}

func TestTablePageFull(t *testing.T) {
	schema_ := newIntSchema()
	tp := newTestTablePage(3)

	for i := 0; i < intRowsPerPage; i++ {
		_, err := tp.InsertTuple(newIntRow(i), schema_, nil, nil)
		assert.NoError(t, err)
	}
	_, err := tp.InsertTuple(newIntRow(0), schema_, nil, nil)
	assert.Equal(t, ErrNotEnoughSpace, err)
	assert.Equal(t, uint32(16), tp.GetFreeSpaceRemaining())

	_, err = tp.InsertTuple(record.NewRow(nil), schema_, nil, nil)
	assert.Equal(t, ErrEmptyTuple, err)
}

func TestDeleteFlag(t *testing.T) {
	assert.True(t, IsDeleted(0))
	assert.False(t, IsDeleted(18))
	assert.True(t, IsDeleted(SetDeletedFlag(18)))
	assert.Equal(t, uint32(18), UnsetDeletedFlag(SetDeletedFlag(18)))
}
