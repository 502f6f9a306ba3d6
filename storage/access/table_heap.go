// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/recovery"
	"github.com/ryogrid/HeapStoreDB/storage/buffer"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/record"
	"github.com/ryogrid/HeapStoreDB/storage/table/schema"
	"github.com/ryogrid/HeapStoreDB/types"
)

const ErrFirstPageNotFlushed = errors.Error("first page of the table heap could not be written")

// TableHeap represents a physical table on disk.
// It contains the id of the first table page. The table pages are a linked list
// walked by page id through the buffer pool.
type TableHeap struct {
	bpm          *buffer.BufferPoolManager
	firstPageId  types.PageID
	schema_      *schema.Schema
	log_manager  *recovery.LogManager
	lock_manager *LockManager
}

// NewTableHeap creates a table heap with one empty page (create table)
func NewTableHeap(bpm *buffer.BufferPoolManager, schema_ *schema.Schema, log_manager *recovery.LogManager, lock_manager *LockManager) (*TableHeap, error) {
	guard := bpm.NewPageGuard()
	if guard == nil {
		return nil, buffer.ErrNoFreeFrame
	}
	defer guard.Release()

	firstPage := CastPageAsTablePage(guard.Page())
	firstPage.WLatch()
	firstPage.Init(guard.PageID(), types.InvalidPageID, log_manager)
	firstPage.WUnlatch()
	// the page must be on disk before anyone records the id
	if !bpm.FlushPage(guard.PageID()) {
		common.ShPrintf(common.ERROR, "NewTableHeap: FlushPage %d failed\n", guard.PageID())
		return nil, ErrFirstPageNotFlushed
	}
	return &TableHeap{bpm, guard.PageID(), schema_, log_manager, lock_manager}, nil
}

// InitTableHeap opens a table heap which already exists on disk
func InitTableHeap(bpm *buffer.BufferPoolManager, pageId types.PageID, schema_ *schema.Schema, log_manager *recovery.LogManager, lock_manager *LockManager) *TableHeap {
	return &TableHeap{bpm, pageId, schema_, log_manager, lock_manager}
}

// GetFirstPageId returns firstPageId
func (t *TableHeap) GetFirstPageId() types.PageID {
	return t.firstPageId
}

func (t *TableHeap) GetSchema() *schema.Schema {
	return t.schema_
}

func (t *TableHeap) GetBufferPoolManager() *buffer.BufferPoolManager {
	return t.bpm
}

// InsertTuple inserts a row into the table and sets the RID it got on row.
//
// It fetches the first page and tries to insert the row there.
// If the page has no room:
// 1. It tries to insert in the next page
// 2. If there is no next page, it creates a new page, links it and inserts in it
func (t *TableHeap) InsertTuple(row *record.Row) error {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::InsertTuple called. row:%v\n", row)
	}
	if row.GetSerializedSize(t.schema_) > MaxRowSize {
		return ErrTupleTooLarge
	}

	guard := t.bpm.FetchPageGuard(t.firstPageId)
	if guard == nil {
		return buffer.ErrNoFreeFrame
	}

	// INVARIANT: guard holds the page which is tried next
	for {
		currentPage := CastPageAsTablePage(guard.Page())
		currentPage.WLatch()
		rid, err := currentPage.InsertTuple(row, t.schema_, t.log_manager, t.lock_manager)
		if err == nil {
			currentPage.WUnlatch()
			guard.MarkDirty()
			guard.Release()
			row.SetRID(rid)
			return nil
		}
		if err != ErrNotEnoughSpace {
			currentPage.WUnlatch()
			guard.Release()
			return err
		}

		nextPageId := currentPage.GetNextPageId()
		if nextPageId.IsValid() {
			currentPage.WUnlatch()
			guard.Release()
			guard = t.bpm.FetchPageGuard(nextPageId)
			if guard == nil {
				return buffer.ErrNoFreeFrame
			}
			continue
		}

		newGuard := t.bpm.NewPageGuard()
		if newGuard == nil {
			currentPage.WUnlatch()
			guard.Release()
			return buffer.ErrNoFreeFrame
		}
		// the new page is initialized before it becomes reachable from the chain
		newPage := CastPageAsTablePage(newGuard.Page())
		newPage.Init(newGuard.PageID(), currentPage.GetTablePageId(), t.log_manager)
		currentPage.SetNextPageId(newGuard.PageID())
		currentPage.WUnlatch()
		guard.MarkDirty()
		guard.Release()
		guard = newGuard
	}
}

// UpdateTuple replaces the row at rid with row.
// When the new row does not fit in the page of rid, it is inserted as a new row and
// the old one is marked deleted, so row gets a new RID. Otherwise row gets rid.
// On failure nothing is changed.
func (t *TableHeap) UpdateTuple(row *record.Row, rid page.RID) bool {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::UpdateTuple called. rid:%v row:%v\n", rid, row)
	}
	if !rid.GetPageId().IsValid() {
		return false
	}
	// Find the page which contains the tuple.
	guard := t.bpm.FetchPageGuard(rid.GetPageId())
	if guard == nil {
		return false
	}
	page_ := CastPageAsTablePage(guard.Page())
	page_.WLatch()
	err := page_.UpdateTuple(row, t.schema_, rid, t.log_manager, t.lock_manager)
	page_.WUnlatch()
	if err == nil {
		guard.MarkDirty()
		guard.Release()
		row.SetRID(rid)
		return true
	}
	guard.Release()
	if err != ErrNotEnoughSpace {
		common.ShPrintf(common.DEBUG_INFO, "TableHeap::UpdateTuple: rid:%v update failed: %v\n", rid, err)
		return false
	}

	// move the row: insert first so a failure leaves the old row as it is
	if err := t.InsertTuple(row); err != nil {
		common.ShPrintf(common.WARN, "TableHeap::UpdateTuple: InsertTuple failed: %v\n", err)
		row.SetRID(rid)
		return false
	}
	if !t.MarkDelete(rid) {
		common.ShPrintf(common.WARN, "TableHeap::UpdateTuple: MarkDelete of rid:%v failed\n", rid)
		t.ApplyDelete(row.GetRID())
		row.SetRID(rid)
		return false
	}
	common.ShPrintf(common.DEBUG_INFO, "TableHeap::UpdateTuple: rid:%v moved to %v\n", rid, row.GetRID())
	return true
}

// MarkDelete sets the delete mark of the row at rid
func (t *TableHeap) MarkDelete(rid page.RID) bool {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::MarkDelete called. rid:%v\n", rid)
	}
	if !rid.GetPageId().IsValid() {
		return false
	}
	// Find the page which contains the tuple.
	guard := t.bpm.FetchPageGuard(rid.GetPageId())
	if guard == nil {
		return false
	}
	defer guard.Release()

	page_ := CastPageAsTablePage(guard.Page())
	page_.WLatch()
	err := page_.MarkDelete(rid, t.log_manager, t.lock_manager)
	page_.WUnlatch()
	if err != nil {
		common.ShPrintf(common.DEBUG_INFO, "TableHeap::MarkDelete: rid:%v failed: %v\n", rid, err)
		return false
	}
	guard.MarkDirty()
	return true
}

// ApplyDelete removes the row at rid from its page for good
func (t *TableHeap) ApplyDelete(rid page.RID) bool {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::ApplyDelete called. rid:%v\n", rid)
	}
	guard := t.bpm.FetchPageGuard(rid.GetPageId())
	common.SH_Assert(guard != nil, "Couldn't find a page containing that RID.")
	defer guard.Release()

	page_ := CastPageAsTablePage(guard.Page())
	page_.WLatch()
	err := page_.ApplyDelete(rid, t.log_manager, t.lock_manager)
	page_.WUnlatch()
	if err != nil {
		common.ShPrintf(common.DEBUG_INFO, "TableHeap::ApplyDelete: rid:%v failed: %v\n", rid, err)
		return false
	}
	guard.MarkDirty()
	return true
}

// RollbackDelete clears the delete mark of the row at rid
func (t *TableHeap) RollbackDelete(rid page.RID) bool {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::RollBackDelete called. rid:%v\n", rid)
	}
	guard := t.bpm.FetchPageGuard(rid.GetPageId())
	common.SH_Assert(guard != nil, "Couldn't find a page containing that RID.")
	defer guard.Release()

	page_ := CastPageAsTablePage(guard.Page())
	page_.WLatch()
	err := page_.RollbackDelete(rid, t.log_manager, t.lock_manager)
	page_.WUnlatch()
	if err != nil {
		common.ShPrintf(common.DEBUG_INFO, "TableHeap::RollbackDelete: rid:%v failed: %v\n", rid, err)
		return false
	}
	guard.MarkDirty()
	return true
}

// GetTuple reads the row at row.GetRID() into row
func (t *TableHeap) GetTuple(row *record.Row) bool {
	rid := row.GetRID()
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::GetTuple called. rid:%v\n", rid)
	}
	if !rid.GetPageId().IsValid() {
		return false
	}
	guard := t.bpm.FetchPageGuard(rid.GetPageId())
	if guard == nil {
		return false
	}
	defer guard.Release()

	page_ := CastPageAsTablePage(guard.Page())
	page_.RLatch()
	defer page_.RUnlatch()
	if page_.GetTablePageId() != rid.GetPageId() {
		// not a page of a table heap
		return false
	}
	return page_.GetTuple(rid, t.schema_, row) == nil
}

// FreeHeap deletes every page of the heap through the buffer pool.
// The heap must not be used afterwards.
// When a page can not be deleted, the pages after it are kept and the heap
// starts at that page, so no freed page stays reachable from the heap.
func (t *TableHeap) FreeHeap() error {
	for t.firstPageId.IsValid() {
		pageId := t.firstPageId
		guard := t.bpm.FetchPageGuard(pageId)
		if guard == nil {
			return buffer.ErrNoFreeFrame
		}
		nextPageId := CastPageAsTablePage(guard.Page()).GetNextPageId()
		guard.Release()
		if err := t.bpm.DeletePage(pageId); err != nil {
			common.ShPrintf(common.ERROR, "TableHeap::FreeHeap: DeletePage %d failed: %v\n", pageId, err)
			return err
		}
		t.firstPageId = nextPageId
	}
	return nil
}

// Begin returns an iterator on the first live row.
// When a page of the chain can not be fetched, the iterator is at the end
// and Err returns the reason.
func (t *TableHeap) Begin() *TableIterator {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TableHeap::Begin called.\n")
	}
	row, err := t.seekLiveRow(t.firstPageId, nil)
	return &TableIterator{t, row, err}
}

// End returns the iterator past the last row
func (t *TableHeap) End() *TableIterator {
	return &TableIterator{t, nil, nil}
}

// seekLiveRow returns a copy of the first live row on the chain starting at pageId.
// When after is not nil, rows of pageId up to after are skipped.
// It returns nil and no error when the chain has no more live rows.
func (t *TableHeap) seekLiveRow(pageId types.PageID, after *page.RID) (*record.Row, error) {
	for pageId.IsValid() {
		guard := t.bpm.FetchPageGuard(pageId)
		if guard == nil {
			common.ShPrintf(common.ERROR, "TableHeap: could not fetch page %d while scanning\n", pageId)
			return nil, buffer.ErrNoFreeFrame
		}
		currentPage := CastPageAsTablePage(guard.Page())
		currentPage.RLatch()

		var found *record.Row
		rid, ok := currentPage.GetFirstTupleRid()
		if after != nil {
			rid, ok = currentPage.GetNextTupleRid(*after)
		}
		for ok {
			row := record.NewRowWithRID(rid)
			err := currentPage.GetTuple(rid, t.schema_, row)
			if err == nil {
				found = row
				break
			}
			common.ShPrintf(common.ERROR, "TableHeap: skipping unreadable row %v: %v\n", rid, err)
			rid, ok = currentPage.GetNextTupleRid(rid)
		}
		nextPageId := currentPage.GetNextPageId()

		currentPage.RUnlatch()
		guard.Release()
		if found != nil {
			return found, nil
		}
		pageId = nextPageId
		after = nil
	}
	return nil, nil
}
