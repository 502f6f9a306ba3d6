package disk

import (
	"fmt"

	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/types"
)

// Physical layout of a database file:
//
//	| meta | bitmap 0 | data 0 ... data N-1 | bitmap 1 | data N ... data 2N-1 | ...
//
// N is the bitmap size. Logical page l lives in extent l/N at offset l%N.

// LocatePage returns (extent index, offset in extent) of a logical page.
func LocatePage(logicalPageID types.PageID, bitmapSize uint32) pair.Pair[uint32, uint32] {
	common.SH_Assert(logicalPageID.IsValid(), fmt.Sprintf("invalid logical page id: %d", logicalPageID))
	lid := uint32(logicalPageID)
	return pair.Pair[uint32, uint32]{First: lid / bitmapSize, Second: lid % bitmapSize}
}

// MapPageID converts a logical page id to its physical page id.
func MapPageID(logicalPageID types.PageID, bitmapSize uint32) types.PageID {
	common.SH_Assert(logicalPageID.IsValid(), fmt.Sprintf("invalid logical page id: %d", logicalPageID))
	lid := uint32(logicalPageID)
	return types.PageID(lid + 2 + lid/bitmapSize)
}

// BitmapPhysicalPageID returns the physical page id of the bitmap page of an extent.
func BitmapPhysicalPageID(extent uint32, bitmapSize uint32) types.PageID {
	return types.PageID(1 + extent*(bitmapSize+1))
}

// LogicalPageID is the inverse of MapPageID. It returns false for the meta page and bitmap pages.
func LogicalPageID(physicalPageID types.PageID, bitmapSize uint32) (types.PageID, bool) {
	if physicalPageID < 2 {
		return types.InvalidPageID, false
	}
	pid := uint32(physicalPageID) - 1
	extent := pid / (bitmapSize + 1)
	pos := pid % (bitmapSize + 1)
	if pos == 0 {
		return types.InvalidPageID, false
	}
	return types.PageID(extent*bitmapSize + pos - 1), true
}
