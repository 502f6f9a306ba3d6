package disk

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/ryogrid/HeapStoreDB/common"
)

// Bitmap page format:
//
//	----------------------------------------------------------
//	| AllocatedCount (4) | NextFreeHint (4) | bits ... (1 per page) |
//	----------------------------------------------------------
//
// Bit i (byte i/8, bit i%8) set means page i of the extent is allocated.
// NextFreeHint is advisory and checked before it is used.
const (
	bitmapOffsetAllocated = 0
	bitmapOffsetNextFree  = 4
	bitmapHeaderSize      = 8
)

// MaxBitmapSize returns the largest page count a bitmap page of pageSize bytes can track.
func MaxBitmapSize(pageSize uint32) uint32 {
	return 8 * (pageSize - bitmapHeaderSize)
}

// BitmapPage is a view over the raw bytes of a bitmap page tracking capacity pages.
type BitmapPage struct {
	data     []byte
	capacity uint32
}

func NewBitmapPage(data []byte, capacity uint32) *BitmapPage {
	common.SH_Assert(capacity <= MaxBitmapSize(uint32(len(data))),
		fmt.Sprintf("bitmap capacity %d does not fit in %d bytes", capacity, len(data)))
	return &BitmapPage{data, capacity}
}

func (b *BitmapPage) GetAllocatedCount() uint32 {
	return binary.LittleEndian.Uint32(b.data[bitmapOffsetAllocated:])
}

func (b *BitmapPage) setAllocatedCount(cnt uint32) {
	binary.LittleEndian.PutUint32(b.data[bitmapOffsetAllocated:], cnt)
}

func (b *BitmapPage) getNextFreeHint() uint32 {
	return binary.LittleEndian.Uint32(b.data[bitmapOffsetNextFree:])
}

func (b *BitmapPage) setNextFreeHint(offset uint32) {
	binary.LittleEndian.PutUint32(b.data[bitmapOffsetNextFree:], offset)
}

func (b *BitmapPage) GetCapacity() uint32 {
	return b.capacity
}

// AllocatePage marks a free page allocated and returns its offset in the extent.
func (b *BitmapPage) AllocatePage() (uint32, bool) {
	if b.GetAllocatedCount() >= b.capacity {
		return 0, false
	}

	offset := b.getNextFreeHint()
	if offset >= b.capacity || !b.IsPageFree(offset) {
		var found bool
		offset, found = b.findFree(0)
		if !found {
			return 0, false
		}
	}

	b.setBit(offset)
	b.setAllocatedCount(b.GetAllocatedCount() + 1)

	next, found := b.findFree(offset + 1)
	if !found {
		next, found = b.findFree(0)
	}
	if !found {
		next = b.capacity
	}
	b.setNextFreeHint(next)
	return offset, true
}

// DeallocatePage frees an allocated page. It returns false when the page was already free.
func (b *BitmapPage) DeallocatePage(offset uint32) bool {
	if offset >= b.capacity || b.IsPageFree(offset) {
		return false
	}
	b.clearBit(offset)
	b.setAllocatedCount(b.GetAllocatedCount() - 1)
	if b.getNextFreeHint() >= b.capacity || offset < b.getNextFreeHint() {
		b.setNextFreeHint(offset)
	}
	return true
}

// IsPageFree reports whether offset is free. Offsets past the capacity are never free.
func (b *BitmapPage) IsPageFree(offset uint32) bool {
	if offset >= b.capacity {
		return false
	}
	return b.data[bitmapHeaderSize+offset/8]&(1<<(offset%8)) == 0
}

func (b *BitmapPage) setBit(offset uint32) {
	b.data[bitmapHeaderSize+offset/8] |= 1 << (offset % 8)
}

func (b *BitmapPage) clearBit(offset uint32) {
	b.data[bitmapHeaderSize+offset/8] &^= 1 << (offset % 8)
}

// findFree returns the lowest free offset which is >= from.
func (b *BitmapPage) findFree(from uint32) (uint32, bool) {
	for offset := from; offset < b.capacity; {
		byteVal := b.data[bitmapHeaderSize+offset/8]
		if offset%8 == 0 && byteVal == 0xFF {
			offset += 8
			continue
		}
		// mask out bits below offset in this byte
		free := ^byteVal & (0xFF << (offset % 8))
		if free == 0 {
			offset = (offset/8 + 1) * 8
			continue
		}
		candidate := (offset/8)*8 + uint32(bits.TrailingZeros8(free))
		if candidate >= b.capacity {
			return 0, false
		}
		return candidate, true
	}
	return 0, false
}
