package buffer

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/storage/disk"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	testingpkg "github.com/ryogrid/HeapStoreDB/testing/testing_assert"
	"github.com/ryogrid/HeapStoreDB/types"
)

var replacerKinds = []ReplacerKind{ClockReplacerKind, LRUReplacerKind}

func TestBinaryData(t *testing.T) {
	for _, kind := range replacerKinds {
		t.Run(kind.String(), func(t *testing.T) {
			poolSize := uint32(10)

			dm := disk.NewDiskManagerTest()
			defer dm.ShutDown()
			bpm := NewBufferPoolManagerWithReplacer(poolSize, dm, kind)

			page0 := bpm.NewPage()

			// Scenario: The buffer pool is empty. We should be able to create a new page.
			testingpkg.Equals(t, types.PageID(0), page0.GetPageId())

			// Generate random binary data
			randomBinaryData := make([]byte, common.PageSize)
			rand.Read(randomBinaryData)

			// Insert terminal characters both in the middle and at end
			randomBinaryData[common.PageSize/2] = '0'
			randomBinaryData[common.PageSize-1] = '0'

			var fixedRandomBinaryData [common.PageSize]byte
			copy(fixedRandomBinaryData[:], randomBinaryData[:common.PageSize])

			// Scenario: Once we have a page, we should be able to read and write content.
			page0.Copy(0, randomBinaryData)
			testingpkg.Equals(t, fixedRandomBinaryData, *page0.Data())

			// Scenario: We should be able to create new pages until we fill up the buffer pool.
			for i := uint32(1); i < poolSize; i++ {
				p := bpm.NewPage()
				testingpkg.Equals(t, types.PageID(i), p.GetPageId())
			}

			// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
			for i := poolSize; i < poolSize*2; i++ {
				testingpkg.Equals(t, (*page.Page)(nil), bpm.NewPage())
			}

			// Scenario: After unpinning pages {0, 1, 2, 3, 4} and pinning another 4 new pages,
			// there would still be one cache frame left for reading page 0.
			for i := 0; i < 5; i++ {
				testingpkg.Ok(t, bpm.UnpinPage(types.PageID(i), true))
				bpm.FlushPage(types.PageID(i))
			}
			for i := 0; i < 4; i++ {
				p := bpm.NewPage()
				bpm.UnpinPage(p.GetPageId(), false)
			}

			// Scenario: We should be able to fetch the data we wrote a while ago.
			page0 = bpm.FetchPage(types.PageID(0))
			testingpkg.Equals(t, fixedRandomBinaryData, *page0.Data())
			testingpkg.Ok(t, bpm.UnpinPage(types.PageID(0), true))
		})
	}
}

func TestSample(t *testing.T) {
	for _, kind := range replacerKinds {
		t.Run(kind.String(), func(t *testing.T) {
			poolSize := uint32(10)

			dm := disk.NewDiskManagerTest()
			defer dm.ShutDown()
			bpm := NewBufferPoolManagerWithReplacer(poolSize, dm, kind)

			page0 := bpm.NewPage()

			// Scenario: The buffer pool is empty. We should be able to create a new page.
			testingpkg.Equals(t, types.PageID(0), page0.GetPageId())

			// Scenario: Once we have a page, we should be able to read and write content.
			page0.Copy(0, []byte("Hello"))
			testingpkg.Equals(t, [common.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

			// Scenario: We should be able to create new pages until we fill up the buffer pool.
			for i := uint32(1); i < poolSize; i++ {
				p := bpm.NewPage()
				testingpkg.Equals(t, types.PageID(i), p.GetPageId())
			}

			// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
			for i := poolSize; i < poolSize*2; i++ {
				testingpkg.Equals(t, (*page.Page)(nil), bpm.NewPage())
			}

			// Scenario: After unpinning pages {0, 1, 2, 3, 4} and pinning another 4 new pages,
			// there would still be one cache frame left for reading page 0.
			for i := 0; i < 5; i++ {
				testingpkg.Ok(t, bpm.UnpinPage(types.PageID(i), true))
				bpm.FlushPage(types.PageID(i))
			}
			for i := 0; i < 4; i++ {
				bpm.NewPage()
			}
			// Scenario: We should be able to fetch the data we wrote a while ago.
			page0 = bpm.FetchPage(types.PageID(0))
			testingpkg.Equals(t, [common.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

			// Scenario: If we unpin page 0 and then make a new page, all the buffer pages should
			// now be pinned. Fetching page 0 should fail.
			testingpkg.Ok(t, bpm.UnpinPage(types.PageID(0), true))

			testingpkg.Equals(t, types.PageID(14), bpm.NewPage().GetPageId())
			testingpkg.Equals(t, (*page.Page)(nil), bpm.NewPage())
			testingpkg.Equals(t, (*page.Page)(nil), bpm.FetchPage(types.PageID(0)))
		})
	}
}

func TestUnpinErrors(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(4, dm)

	testingpkg.Equals(t, ErrPageNotResident, bpm.UnpinPage(types.PageID(3), false))

	p := bpm.NewPage()
	testingpkg.Ok(t, bpm.UnpinPage(p.GetPageId(), false))
	testingpkg.Equals(t, ErrPageNotPinned, bpm.UnpinPage(p.GetPageId(), false))
	testingpkg.Assert(t, bpm.CheckAllUnpinned(), "all pages should be unpinned")
}

func TestDirtyPageIsWrittenBackOnEviction(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(2, dm)

	p := bpm.NewPage()
	pageID := p.GetPageId()
	p.Copy(0, []byte("dirty"))
	testingpkg.Ok(t, bpm.UnpinPage(pageID, true))

	// evict it through two other pages
	for i := 0; i < 2; i++ {
		other := bpm.NewPage()
		testingpkg.Ok(t, bpm.UnpinPage(other.GetPageId(), false))
	}

	buf := make([]byte, common.PageSize)
	testingpkg.Ok(t, dm.ReadPage(pageID, buf))
	testingpkg.Equals(t, []byte("dirty"), buf[:5])

	p = bpm.FetchPage(pageID)
	testingpkg.Equals(t, []byte("dirty"), p.Data()[:5])
	testingpkg.Assert(t, !p.IsDirty(), "freshly read page must be clean")
	testingpkg.Ok(t, bpm.UnpinPage(pageID, false))
}

func TestDeletePage(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(3, dm)

	p := bpm.NewPage()
	pageID := p.GetPageId()
	testingpkg.Equals(t, ErrPagePinned, bpm.DeletePage(pageID))
	testingpkg.Assert(t, !dm.IsPageFree(pageID), "pinned page must stay allocated")

	testingpkg.Ok(t, bpm.UnpinPage(pageID, true))
	testingpkg.Ok(t, bpm.DeletePage(pageID))
	testingpkg.Assert(t, dm.IsPageFree(pageID), "deleted page must be free on disk")
	testingpkg.Equals(t, ErrPageNotResident, bpm.UnpinPage(pageID, false))

	// freed frame and page id are reused
	reused := bpm.NewPage()
	testingpkg.Equals(t, pageID, reused.GetPageId())
	testingpkg.Equals(t, [common.PageSize]byte{}, *reused.Data())
	testingpkg.Ok(t, bpm.UnpinPage(reused.GetPageId(), false))

	// a page which is not resident is only freed on disk
	other := bpm.NewPage()
	otherID := other.GetPageId()
	testingpkg.Ok(t, bpm.UnpinPage(otherID, true))
	for i := 0; i < 6; i++ {
		filler := bpm.NewPage()
		testingpkg.Ok(t, bpm.UnpinPage(filler.GetPageId(), false))
	}
	testingpkg.Ok(t, bpm.DeletePage(otherID))
	testingpkg.Assert(t, dm.IsPageFree(otherID), "evicted page must be freed on disk")
}

func TestFlushAllPages(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(5, dm)

	pageIDs := make([]types.PageID, 0)
	for i := 0; i < 5; i++ {
		p := bpm.NewPage()
		binary.LittleEndian.PutUint32(p.Data()[:], uint32(100+i))
		pageIDs = append(pageIDs, p.GetPageId())
		testingpkg.Ok(t, bpm.UnpinPage(p.GetPageId(), true))
	}
	testingpkg.Ok(t, bpm.FlushAllPages())

	buf := make([]byte, common.PageSize)
	for i, pageID := range pageIDs {
		testingpkg.Ok(t, dm.ReadPage(pageID, buf))
		testingpkg.Equals(t, uint32(100+i), binary.LittleEndian.Uint32(buf))
	}
}

// pinned pages must never be chosen as victims while other goroutines churn the pool
func TestPinnedPagesAreNeverEvicted(t *testing.T) {
	for _, kind := range replacerKinds {
		t.Run(kind.String(), func(t *testing.T) {
			dm := disk.NewDiskManagerTest()
			defer dm.ShutDown()
			bpm := NewBufferPoolManagerWithReplacer(6, dm, kind)

			pinned := make([]*page.Page, 0)
			for i := 0; i < 2; i++ {
				p := bpm.NewPage()
				binary.LittleEndian.PutUint32(p.Data()[:], 0xCAFE0000+uint32(i))
				pinned = append(pinned, p)
			}

			others := make([]types.PageID, 0)
			for i := 0; i < 12; i++ {
				p := bpm.NewPage()
				binary.LittleEndian.PutUint32(p.Data()[:], uint32(p.GetPageId()))
				others = append(others, p.GetPageId())
				testingpkg.Ok(t, bpm.UnpinPage(p.GetPageId(), true))
			}

			wg := new(sync.WaitGroup)
			errCh := make(chan string, 64)
			for g := 0; g < 4; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 200; i++ {
						pageID := others[(g*7+i)%len(others)]
						p := bpm.FetchPage(pageID)
						if p == nil {
							// every free frame is momentarily pinned by other goroutines
							continue
						}
						if binary.LittleEndian.Uint32(p.Data()[:]) != uint32(pageID) {
							errCh <- "fetched page has wrong contents"
						}
						bpm.UnpinPage(pageID, false)
					}
				}(g)
			}
			wg.Wait()
			close(errCh)
			for msg := range errCh {
				t.Error(msg)
			}

			for i, p := range pinned {
				testingpkg.Equals(t, int32(1), p.PinCount())
				testingpkg.Equals(t, uint32(0xCAFE0000+uint32(i)), binary.LittleEndian.Uint32(p.Data()[:]))
				fetched := bpm.FetchPage(p.GetPageId())
				testingpkg.Assert(t, fetched == p, "pinned page must still be resident in the same frame")
				bpm.UnpinPage(p.GetPageId(), false)
				bpm.UnpinPage(p.GetPageId(), true)
			}
			testingpkg.Assert(t, bpm.CheckAllUnpinned(), "all pages should be unpinned")
		})
	}
}
