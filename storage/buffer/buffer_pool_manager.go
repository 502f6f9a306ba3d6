// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"fmt"
	"sync"

	"github.com/golang-collections/collections/queue"
	"github.com/ncw/directio"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/storage/disk"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/types"
)

const ErrPageNotResident = errors.Error("page is not in the buffer pool")
const ErrPageNotPinned = errors.Error("page is not pinned")
const ErrPagePinned = errors.Error("page is pinned")
const ErrNoFreeFrame = errors.Error("all frames of the buffer pool are pinned")

// BufferPoolManager represents the buffer pool manager.
// mutex is held through frame selection, victim write back and page read,
// so a frame is never handed to two pages at once.
type BufferPoolManager struct {
	diskManager disk.DiskManager
	pages       []*page.Page // index is FrameID
	replacer    Replacer
	freeList    *queue.Queue // of FrameID
	pageTable   map[types.PageID]FrameID
	mutex       *sync.Mutex
}

// FetchPage fetches the requested page from the buffer pool.
// It returns nil when every frame is pinned or the page can not be read.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	common.SH_Assert(pageID.IsValid(), fmt.Sprintf("BPM::FetchPage invalid page id: %d", pageID))

	b.mutex.Lock()
	defer b.mutex.Unlock()

	// if it is on buffer pool return it
	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		if common.EnableDebug {
			common.ShPrintf(common.DEBUG_INFO, "FetchPage: PageId=%d PinCount=%d\n", pg.GetPageId(), pg.PinCount())
		}
		return pg
	}

	// get the id from free list or from replacer
	frameID, ok := b.getFrameID()
	if !ok {
		return nil
	}

	pg := b.pages[frameID]
	if err := b.diskManager.ReadPage(pageID, pg.Data()[:]); err != nil {
		common.ShPrintf(common.ERROR, "BPM::FetchPage failed to read page %d: %v\n", pageID, err)
		b.freeList.Enqueue(frameID)
		return nil
	}
	pg.Reset(pageID)
	b.pageTable[pageID] = frameID

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "FetchPage: PageId=%d cached in frame %d\n", pageID, frameID)
	}
	return pg
}

// UnpinPage unpins the target page from the buffer pool.
// isDirty only ever sets the dirty flag. It never clears it.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		common.ShPrintf(common.WARN, "UnpinPage: could not find page! PageId=%d\n", pageID)
		return ErrPageNotResident
	}

	pg := b.pages[frameID]
	if pg.PinCount() <= 0 {
		common.ShPrintf(common.WARN, "UnpinPage: page is not pinned! PageId=%d\n", pageID)
		return ErrPageNotPinned
	}
	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() == 0 {
		b.replacer.Unpin(frameID)
	}

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "UnpinPage: PageId=%d PinCount=%d\n", pg.GetPageId(), pg.PinCount())
	}
	return nil
}

// FlushPage Flushes the target page to disk.
// The page is written even when it is clean.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.flushPage(pageID) == nil
}

func (b *BufferPoolManager) flushPage(pageID types.PageID) error {
	frameID, ok := b.pageTable[pageID]
	if !ok {
		return ErrPageNotResident
	}

	pg := b.pages[frameID]
	if err := b.diskManager.WritePage(pageID, pg.Data()[:]); err != nil {
		common.ShPrintf(common.ERROR, "BPM::FlushPage failed to write page %d: %v\n", pageID, err)
		return err
	}
	pg.SetIsDirty(false)
	return nil
}

// NewPage allocates a new page in the buffer pool with the disk manager help.
// The returned page is zeroed, pinned once and dirty.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.getFrameID()
	if !ok {
		return nil // the buffer is full, it can't find a frame
	}

	pageID, err := b.diskManager.AllocatePage()
	if err != nil {
		common.ShPrintf(common.ERROR, "BPM::NewPage failed to allocate a page: %v\n", err)
		b.freeList.Enqueue(frameID)
		return nil
	}

	pg := b.pages[frameID]
	clear(pg.Data()[:])
	pg.Reset(pageID)
	// a reused page id may have old bytes on disk
	pg.SetIsDirty(true)
	b.pageTable[pageID] = frameID

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "NewPage: returned pageID: %d\n", pageID)
	}
	return pg
}

// DeletePage removes the page from the buffer pool and frees it on disk.
// It fails when the page is pinned. A page which is not resident is only freed on disk.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		if pg.PinCount() > 0 {
			return ErrPagePinned
		}
		b.replacer.Pin(frameID)
		delete(b.pageTable, pageID)
		clear(pg.Data()[:])
		pg.SetIsDirty(false)
		b.freeList.Enqueue(frameID)
	}

	return b.diskManager.DeallocatePage(pageID)
}

// FlushAllPages flushes all the pages in the buffer pool and the disk meta page.
func (b *BufferPoolManager) FlushAllPages() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	pageIDs := maps.Keys(b.pageTable)
	slices.Sort(pageIDs)
	for _, pageID := range pageIDs {
		if err := b.flushPage(pageID); err != nil {
			return err
		}
	}
	return b.diskManager.FlushMetaPage()
}

// getFrameID returns a frame which no page uses. A dirty victim is written back first.
func (b *BufferPoolManager) getFrameID() (FrameID, bool) {
	if b.freeList.Len() > 0 {
		return b.freeList.Dequeue().(FrameID), true
	}

	frameID, ok := b.replacer.Victim()
	if !ok {
		common.ShPrintf(common.BUFFER_INTERNAL_STATE, "getFrameID: no victim frame\n")
		if common.EnableDebug {
			b.printBufferUsageState("BPM::getFrameID ")
			common.RuntimeStack()
		}
		return 0, false
	}

	victim := b.pages[frameID]
	common.SH_Assert(victim.PinCount() == 0,
		fmt.Sprintf("BPM::getFrameID pin count of page to be cache out must be zero!!!. pageId:%d PinCount:%d", victim.GetPageId(), victim.PinCount()))

	if victim.IsDirty() {
		if err := b.diskManager.WritePage(victim.GetPageId(), victim.Data()[:]); err != nil {
			common.ShPrintf(common.ERROR, "BPM::getFrameID failed to write back page %d: %v\n", victim.GetPageId(), err)
			b.replacer.Unpin(frameID)
			return 0, false
		}
		victim.SetIsDirty(false)
	}

	if common.EnableDebug {
		common.ShPrintf(common.DEBUG_INFO, "getFrameID: page=%d is removed from pageTable.\n", victim.GetPageId())
	}
	delete(b.pageTable, victim.GetPageId())
	return frameID, true
}

// CheckAllUnpinned reports whether no resident page is pinned
func (b *BufferPoolManager) CheckAllUnpinned() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, frameID := range b.pageTable {
		if b.pages[frameID].PinCount() != 0 {
			return false
		}
	}
	return true
}

func (b *BufferPoolManager) GetPoolSize() int {
	return len(b.pages)
}

func (b *BufferPoolManager) GetDiskManager() disk.DiskManager {
	return b.diskManager
}

func (b *BufferPoolManager) PrintBufferUsageState(callerAdditionalInfo string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.printBufferUsageState(callerAdditionalInfo)
}

// prints (pageId,pinCount) of every pinned page
func (b *BufferPoolManager) printBufferUsageState(callerAdditionalInfo string) {
	printStr := fmt.Sprintf("BPM::PrintBufferUsageState %s ", callerAdditionalInfo)
	pinned := make([]*page.Page, 0)
	for _, frameID := range b.pageTable {
		if b.pages[frameID].PinCount() > 0 {
			pinned = append(pinned, b.pages[frameID])
		}
	}

	slices.SortFunc(pinned, func(a, c *page.Page) int { return int(a.GetPageId()) - int(c.GetPageId()) })
	for _, pg := range pinned {
		printStr += fmt.Sprintf("(%d,%d)-", pg.GetPageId(), pg.PinCount())
	}
	common.ShPrintf(common.BUFFER_INTERNAL_STATE|common.INFO, "%s\n", printStr)
}

// NewBufferPoolManager returns a empty buffer pool manager which uses the clock replacer
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	return NewBufferPoolManagerWithReplacer(poolSize, diskManager, ClockReplacerKind)
}

// NewBufferPoolManagerWithReplacer returns a empty buffer pool manager
func NewBufferPoolManagerWithReplacer(poolSize uint32, diskManager disk.DiskManager, kind ReplacerKind) *BufferPoolManager {
	freeList := queue.New()
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList.Enqueue(FrameID(i))
		data := directio.AlignedBlock(common.PageSize)
		pages[i] = page.New(types.InvalidPageID, false, (*[common.PageSize]byte)(data))
	}

	return &BufferPoolManager{diskManager, pages, NewReplacer(kind, poolSize), freeList, make(map[types.PageID]FrameID), new(sync.Mutex)}
}
