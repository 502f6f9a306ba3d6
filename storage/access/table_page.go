// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"fmt"
	"unsafe"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/recovery"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/record"
	"github.com/ryogrid/HeapStoreDB/storage/table/schema"
	"github.com/ryogrid/HeapStoreDB/types"
)

// static constexpr uint64_t DELETE_MASK = (1U << (8 * sizeof(uint32_t) - 1));
const deleteMask = uint32(1 << ((8 * 4) - 1))

const sizeTablePageHeader = uint32(24)
const sizeTuple = uint32(8)
const offSetPrevPageId = uint32(8)
const offSetNextPageId = uint32(12)
const offsetFreeSpace = uint32(16)
const offSetTupleCount = uint32(20)
const offsetTupleOffset = uint32(24)
const offsetTupleSize = uint32(28)

// MaxRowSize is the largest serialized row an empty page accepts
const MaxRowSize = common.PageSize - sizeTablePageHeader - sizeTuple

const ErrEmptyTuple = errors.Error("tuple cannot be empty")
const ErrNotEnoughSpace = errors.Error("there is not enough space")
const ErrTupleTooLarge = errors.Error("tuple is larger than a page can hold")
const ErrSlotOutOfRange = errors.Error("slot number is out of the slot directory")
const ErrTupleDeleted = errors.Error("tuple is deleted")

// Slotted page format:
//
//	---------------------------------------------------------
//	| HEADER | ... FREE SPACE ... | ... INSERTED TUPLES ... |
//	---------------------------------------------------------
//	                              ^
//	                              free space pointer
//	Header format (size in bytes):
//	----------------------------------------------------------------------------
//	| PageId (4)| LSN (4)| PrevPageId (4)| NextPageId (4)| FreeSpacePointer(4) |
//	----------------------------------------------------------------------------
//	----------------------------------------------------------------
//	| TupleCount (4) | Tuple_1 offset (4) | Tuple_1 size (4) | ... |
//	----------------------------------------------------------------
//
// A slot whose size is 0 is empty and can be reused by the next insert.
// The highest bit of a slot size is the delete mark.
type TablePage struct {
	page.Page
}

// CastPageAsTablePage casts the abstract Page struct into TablePage
func CastPageAsTablePage(page *page.Page) *TablePage {
	if page == nil {
		return nil
	}

	return (*TablePage)(unsafe.Pointer(page))
}

// Init initializes the table header
func (tp *TablePage) Init(pageId types.PageID, prevPageId types.PageID, log_manager *recovery.LogManager) {
	tp.SetPageId(pageId)
	tp.SetPrevPageId(prevPageId)
	tp.SetNextPageId(types.InvalidPageID)
	tp.SetTupleCount(0)
	tp.SetFreeSpacePointer(common.PageSize) // point to the end of the page
	// Log that we are creating a new page.
	tp.writeLog(recovery.NEWPAGE, page.RID{PageId: pageId, SlotNum: 0}, log_manager)
}

// InsertTuple serializes row into the page and returns the RID it got.
// The RID of row itself is not touched.
func (tp *TablePage) InsertTuple(row *record.Row, schema_ *schema.Schema, log_manager *recovery.LogManager, lock_manager *LockManager) (page.RID, error) {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TablePage::InsertTuple called. pageId:%d row:%v\n", tp.GetTablePageId(), row)
	}
	if row.GetFieldCount() == 0 {
		return page.InvalidRID, ErrEmptyTuple
	}
	tupleData, err := serializeRow(row, schema_)
	if err != nil {
		return page.InvalidRID, err
	}
	tupleSize := uint32(len(tupleData))

	// try to find a free slot
	var slot uint32
	for slot = uint32(0); slot < tp.GetTupleCount(); slot++ {
		if tp.GetTupleSize(slot) == 0 {
			break
		}
	}

	required := tupleSize
	if slot == tp.GetTupleCount() {
		required += sizeTuple
	}
	if tp.GetFreeSpaceRemaining() < required {
		return page.InvalidRID, ErrNotEnoughSpace
	}

	rid := page.RID{}
	rid.Set(tp.GetTablePageId(), slot)

	unlock, err := lockRow(rid, lock_manager)
	if err != nil {
		return page.InvalidRID, err
	}
	defer unlock()

	tp.SetFreeSpacePointer(tp.GetFreeSpacePointer() - tupleSize)
	tp.setTuple(slot, tupleData)
	if slot == tp.GetTupleCount() {
		tp.SetTupleCount(tp.GetTupleCount() + 1)
	}

	tp.writeLog(recovery.INSERT, rid, log_manager)
	return rid, nil
}

// UpdateTuple rewrites the tuple at rid with row in place.
// ErrNotEnoughSpace means the page is left untouched and row has to go to another page.
func (tp *TablePage) UpdateTuple(row *record.Row, schema_ *schema.Schema, rid page.RID, log_manager *recovery.LogManager, lock_manager *LockManager) error {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TablePage::UpdateTuple called. rid:%v row:%v\n", rid, row)
	}
	if row.GetFieldCount() == 0 {
		return ErrEmptyTuple
	}
	slot_num := rid.GetSlotNum()
	if slot_num >= tp.GetTupleCount() {
		return ErrSlotOutOfRange
	}
	tuple_size := tp.GetTupleSize(slot_num)
	if IsDeleted(tuple_size) {
		return ErrTupleDeleted
	}

	newData, err := serializeRow(row, schema_)
	if err != nil {
		return err
	}
	new_size := uint32(len(newData))
	if tp.GetFreeSpaceRemaining()+tuple_size < new_size {
		return ErrNotEnoughSpace
	}

	unlock, err := lockRow(rid, lock_manager)
	if err != nil {
		return err
	}
	defer unlock()

	tuple_offset := tp.GetTupleOffsetAtSlot(slot_num)
	free_space_pointer := tp.GetFreeSpacePointer()
	common.SH_Assert(tuple_offset >= free_space_pointer, "Offset should appear after current free space position.")

	// shift the tuples stored before this one by the size difference, then write the new bytes
	data := tp.Data()
	copy(data[free_space_pointer+tuple_size-new_size:], data[free_space_pointer:tuple_offset])
	tp.SetFreeSpacePointer(free_space_pointer + tuple_size - new_size)
	copy(data[tuple_offset+tuple_size-new_size:], newData)
	tp.SetTupleSize(slot_num, new_size)

	// Update all tuple offsets.
	tuple_cnt := tp.GetTupleCount()
	for ii := uint32(0); ii < tuple_cnt; ii++ {
		tuple_offset_i := tp.GetTupleOffsetAtSlot(ii)
		if tp.GetTupleSize(ii) > 0 && tuple_offset_i < tuple_offset+tuple_size {
			tp.SetTupleOffsetAtSlot(ii, tuple_offset_i+tuple_size-new_size)
		}
	}

	tp.writeLog(recovery.UPDATE, rid, log_manager)
	return nil
}

// MarkDelete sets the delete mark of the tuple. The bytes stay on the page.
func (tp *TablePage) MarkDelete(rid page.RID, log_manager *recovery.LogManager, lock_manager *LockManager) error {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TablePage::MarkDelete called. rid:%v\n", rid)
	}
	slot_num := rid.GetSlotNum()
	if slot_num >= tp.GetTupleCount() {
		return ErrSlotOutOfRange
	}
	tuple_size := tp.GetTupleSize(slot_num)
	// deleting twice is a failure
	if IsDeleted(tuple_size) {
		return ErrTupleDeleted
	}

	unlock, err := lockRow(rid, lock_manager)
	if err != nil {
		return err
	}
	defer unlock()

	tp.SetTupleSize(slot_num, SetDeletedFlag(tuple_size))
	tp.writeLog(recovery.MARKDELETE, rid, log_manager)
	return nil
}

// ApplyDelete removes the tuple bytes from the page and empties the slot.
// Both a marked and a live tuple are removed.
func (tp *TablePage) ApplyDelete(rid page.RID, log_manager *recovery.LogManager, lock_manager *LockManager) error {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TablePage::ApplyDelete called. rid:%v\n", rid)
	}
	slot_num := rid.GetSlotNum()
	common.SH_Assert(slot_num < tp.GetTupleCount(), "Cannot have more slots than tuples.")

	tuple_offset := tp.GetTupleOffsetAtSlot(slot_num)
	tuple_size := UnsetDeletedFlag(tp.GetTupleSize(slot_num))
	if tuple_size == 0 {
		// already applied
		return ErrTupleDeleted
	}

	unlock, err := lockRow(rid, lock_manager)
	if err != nil {
		return err
	}
	defer unlock()

	free_space_pointer := tp.GetFreeSpacePointer()
	common.SH_Assert(tuple_offset >= free_space_pointer, "Free space appears before tuples.")

	data := tp.Data()
	copy(data[free_space_pointer+tuple_size:], data[free_space_pointer:tuple_offset])
	clear(data[free_space_pointer : free_space_pointer+tuple_size])

	tp.SetFreeSpacePointer(free_space_pointer + tuple_size)
	tp.SetTupleSize(slot_num, 0)
	tp.SetTupleOffsetAtSlot(slot_num, 0)

	// Update all tuple offsets.
	tuple_count := tp.GetTupleCount()
	for ii := uint32(0); ii < tuple_count; ii++ {
		tuple_offset_ii := tp.GetTupleOffsetAtSlot(ii)
		if tp.GetTupleSize(ii) != 0 && tuple_offset_ii < tuple_offset {
			tp.SetTupleOffsetAtSlot(ii, tuple_offset_ii+tuple_size)
		}
	}

	tp.writeLog(recovery.APPLYDELETE, rid, log_manager)
	return nil
}

// RollbackDelete clears the delete mark set by MarkDelete. A live tuple is left as it is.
func (tp *TablePage) RollbackDelete(rid page.RID, log_manager *recovery.LogManager, lock_manager *LockManager) error {
	if common.EnableDebug {
		common.ShPrintf(common.RDB_OP_FUNC_CALL, "TablePage::RollbackDelete called. rid:%v\n", rid)
	}
	slot_num := rid.GetSlotNum()
	common.SH_Assert(slot_num < tp.GetTupleCount(), "We can't have more slots than tuples.")
	tuple_size := tp.GetTupleSize(slot_num)
	if tuple_size == 0 {
		return ErrTupleDeleted
	}
	if !IsDeleted(tuple_size) {
		return nil
	}

	unlock, err := lockRow(rid, lock_manager)
	if err != nil {
		return err
	}
	defer unlock()

	tp.SetTupleSize(slot_num, UnsetDeletedFlag(tuple_size))
	tp.writeLog(recovery.ROLLBACKDELETE, rid, log_manager)
	return nil
}

// GetTuple deserializes the live tuple at rid into row and sets its RID.
// The fields of row are copies of the page bytes.
func (tp *TablePage) GetTuple(rid page.RID, schema_ *schema.Schema, row *record.Row) error {
	slot := rid.GetSlotNum()
	if slot >= tp.GetTupleCount() {
		return ErrSlotOutOfRange
	}
	tupleSize := tp.GetTupleSize(slot)
	if IsDeleted(tupleSize) {
		return ErrTupleDeleted
	}

	tupleOffset := tp.GetTupleOffsetAtSlot(slot)
	if _, err := row.DeserializeFrom(tp.Data()[tupleOffset:tupleOffset+tupleSize], schema_); err != nil {
		return fmt.Errorf("rid %s: %w", rid, err)
	}
	row.SetRID(rid)
	return nil
}

// GetFirstTupleRid returns the first live tuple of the page
func (tp *TablePage) GetFirstTupleRid() (page.RID, bool) {
	return tp.findLiveTuple(0)
}

// GetNextTupleRid returns the first live tuple after curRID
func (tp *TablePage) GetNextTupleRid(curRID page.RID) (page.RID, bool) {
	return tp.findLiveTuple(curRID.GetSlotNum() + 1)
}

func (tp *TablePage) findLiveTuple(from uint32) (page.RID, bool) {
	tupleCount := tp.GetTupleCount()
	for ii := from; ii < tupleCount; ii++ {
		if !IsDeleted(tp.GetTupleSize(ii)) {
			return page.RID{PageId: tp.GetTablePageId(), SlotNum: ii}, true
		}
	}
	return page.InvalidRID, false
}

func (tp *TablePage) writeLog(kind recovery.LogRecordType, rid page.RID, log_manager *recovery.LogManager) {
	if log_manager == nil || !log_manager.IsEnabledLogging() {
		return
	}
	tp.SetLSN(log_manager.AppendLogRecord(kind, rid))
}

// lockRow locks rid for the duration of a slot change. The returned func releases it.
func lockRow(rid page.RID, lock_manager *LockManager) (func(), error) {
	if lock_manager == nil {
		return func() {}, nil
	}
	if !lock_manager.LockExclusive(rid) {
		return nil, fmt.Errorf("%w: %s", ErrRowLocked, rid)
	}
	return func() { lock_manager.Unlock(rid) }, nil
}

func serializeRow(row *record.Row, schema_ *schema.Schema) ([]byte, error) {
	size := row.GetSerializedSize(schema_)
	if size > MaxRowSize {
		return nil, ErrTupleTooLarge
	}
	buf := make([]byte, size)
	if _, err := row.SerializeTo(buf, schema_); err != nil {
		return nil, err
	}
	return buf, nil
}

func (tp *TablePage) SetPageId(pageId types.PageID) {
	tp.Copy(0, pageId.Serialize())
}

func (tp *TablePage) SetPrevPageId(pageId types.PageID) {
	tp.Copy(offSetPrevPageId, pageId.Serialize())
}

func (tp *TablePage) SetNextPageId(pageId types.PageID) {
	tp.Copy(offSetNextPageId, pageId.Serialize())
}

func (tp *TablePage) SetFreeSpacePointer(freeSpacePointer uint32) {
	tp.Copy(offsetFreeSpace, types.UInt32(freeSpacePointer).Serialize())
}

func (tp *TablePage) SetTupleCount(tupleCount uint32) {
	tp.Copy(offSetTupleCount, types.UInt32(tupleCount).Serialize())
}

func (tp *TablePage) setTuple(slot uint32, tupleData []byte) {
	fsp := tp.GetFreeSpacePointer()
	// tuple bytes start at the free space pointer
	tp.Copy(fsp, tupleData)
	tp.Copy(offsetTupleOffset+sizeTuple*slot, types.UInt32(fsp).Serialize())
	tp.Copy(offsetTupleSize+sizeTuple*slot, types.UInt32(len(tupleData)).Serialize())
}

func (tp *TablePage) GetTablePageId() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[:])
}

func (tp *TablePage) GetPrevPageId() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[offSetPrevPageId:])
}

func (tp *TablePage) GetNextPageId() types.PageID {
	return types.NewPageIDFromBytes(tp.Data()[offSetNextPageId:])
}

func (tp *TablePage) GetTupleCount() uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offSetTupleCount:]))
}

func (tp *TablePage) GetTupleOffsetAtSlot(slot_num uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetTupleOffset+sizeTuple*slot_num:]))
}

/** Set tuple offset at slot slot_num. */
func (tp *TablePage) SetTupleOffsetAtSlot(slot_num uint32, offset uint32) {
	tp.Copy(offsetTupleOffset+sizeTuple*slot_num, types.UInt32(offset).Serialize())
}

func (tp *TablePage) GetTupleSize(slot_num uint32) uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetTupleSize+sizeTuple*slot_num:]))
}

/** Set tuple size at slot slot_num. */
func (tp *TablePage) SetTupleSize(slot_num uint32, size uint32) {
	tp.Copy(offsetTupleSize+sizeTuple*slot_num, types.UInt32(size).Serialize())
}

func (tp *TablePage) GetFreeSpaceRemaining() uint32 {
	return tp.GetFreeSpacePointer() - sizeTablePageHeader - sizeTuple*tp.GetTupleCount()
}

func (tp *TablePage) GetFreeSpacePointer() uint32 {
	return uint32(types.NewUInt32FromBytes(tp.Data()[offsetFreeSpace:]))
}

/** @return true if the tuple is deleted or empty */
func IsDeleted(tuple_size uint32) bool {
	return tuple_size&uint32(deleteMask) == uint32(deleteMask) || tuple_size == 0
}

/** @return tuple size with the deleted flag set */
func SetDeletedFlag(tuple_size uint32) uint32 {
	return tuple_size | uint32(deleteMask)
}

/** @return tuple size with the deleted flag unset */
func UnsetDeletedFlag(tuple_size uint32) uint32 {
	return tuple_size & (^uint32(deleteMask))
}
