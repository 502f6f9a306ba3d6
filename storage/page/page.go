// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"sync/atomic"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/types"
)

const OffsetPageStart = 0
const OffsetLSN = 4

/**
 * Page is the basic unit of storage within the database system. Page provides a wrapper for actual data pages being
 * held in main memory. Page also contains book-keeping information that is used by the buffer pool manager, e.g.
 * pin count, dirty flag, page id, etc.
 */
type Page struct {
	id       types.PageID           // idenfies the page. It is used to find the offset of the page on disk
	pinCount int32                  // counts how many goroutines are acessing it
	isDirty  bool                   // the page was modified but not flushed
	data     *[common.PageSize]byte // bytes stored in disk
	rwlatch_ common.ReaderWriterLatch
}

func newLatch() common.ReaderWriterLatch {
	if common.EnableDebug {
		return common.NewRWLatchDebug()
	}
	return common.NewRWLatch()
}

// New creates a new page over data
func New(id types.PageID, isDirty bool, data *[common.PageSize]byte) *Page {
	return &Page{id, int32(1), isDirty, data, newLatch()}
}

// New creates a new empty page
func NewEmpty(id types.PageID) *Page {
	return &Page{id, int32(1), false, &[common.PageSize]byte{}, newLatch()}
}

// Reset rebinds the page to another id with one pin. data is left as it is.
func (p *Page) Reset(id types.PageID) {
	p.id = id
	atomic.StoreInt32(&p.pinCount, 1)
	p.isDirty = false
}

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	atomic.AddInt32(&p.pinCount, 1)
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	atomic.AddInt32(&p.pinCount, -1)
}

// PinCount retunds the pin count
func (p *Page) PinCount() int32 {
	return atomic.LoadInt32(&p.pinCount)
}

// GetPageId retunds the page id
func (p *Page) GetPageId() types.PageID {
	return p.id
}

// Data returns the data of the page
func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

// SetIsDirty sets the isDirty bit
func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

// IsDirty check if the page is dirty
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// Copy copies data to the page's data
func (p *Page) Copy(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

/** @return the page LSN. */
func (p *Page) GetLSN() types.LSN {
	return types.NewLSNFromBytes(p.data[OffsetLSN : OffsetLSN+types.SizeOfLSN])
}

/** Sets the page LSN. */
func (p *Page) SetLSN(lsn types.LSN) {
	copy(p.data[OffsetLSN:OffsetLSN+types.SizeOfLSN], lsn.Serialize())
}

/** Acquire the page write latch. */
func (p *Page) WLatch() {
	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "WLatch: pageId=%d\n", p.GetPageId())
	}
	p.rwlatch_.WLock()
}

/** Release the page write latch. */
func (p *Page) WUnlatch() {
	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "WUnlatch: pageId=%d\n", p.GetPageId())
	}
	p.rwlatch_.WUnlock()
}

/** Acquire the page read latch. */
func (p *Page) RLatch() {
	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "RLatch: pageId=%d\n", p.GetPageId())
	}
	p.rwlatch_.RLock()
}

/** Release the page read latch. */
func (p *Page) RUnlatch() {
	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "RUnlatch: pageId=%d\n", p.GetPageId())
	}
	p.rwlatch_.RUnlock()
}
