package buffer

import (
	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/types"
)

// PageGuard owns one pin of a page and gives it back exactly once.
//
//	guard := bpm.FetchPageGuard(pageID)
//	if guard == nil { ... }
//	defer guard.Release()
//
// A guard belongs to one goroutine.
type PageGuard struct {
	bpm      *BufferPoolManager
	page     *page.Page
	isDirty  bool
	released bool
}

// FetchPageGuard is FetchPage returning a guard. It returns nil when FetchPage does.
func (b *BufferPoolManager) FetchPageGuard(pageID types.PageID) *PageGuard {
	pg := b.FetchPage(pageID)
	if pg == nil {
		return nil
	}
	return &PageGuard{b, pg, false, false}
}

// NewPageGuard is NewPage returning a guard. It returns nil when NewPage does.
func (b *BufferPoolManager) NewPageGuard() *PageGuard {
	pg := b.NewPage()
	if pg == nil {
		return nil
	}
	return &PageGuard{b, pg, true, false}
}

func (g *PageGuard) Page() *page.Page {
	common.SH_Assert(!g.released, "PageGuard: page is used after release")
	return g.page
}

func (g *PageGuard) PageID() types.PageID {
	return g.page.GetPageId()
}

// MarkDirty makes Release unpin the page as dirty
func (g *PageGuard) MarkDirty() {
	g.isDirty = true
}

// Release unpins the page. Calls after the first do nothing.
func (g *PageGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	if err := g.bpm.UnpinPage(g.page.GetPageId(), g.isDirty); err != nil {
		common.ShPrintf(common.ERROR, "PageGuard: unpin of page %d failed: %v\n", g.page.GetPageId(), err)
	}
}

func (g *PageGuard) IsReleased() bool {
	return g.released
}
