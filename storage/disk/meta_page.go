package disk

import (
	"encoding/binary"
	"fmt"

	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/spaolacci/murmur3"
)

const ErrMetaPageCorrupted = errors.Error("meta page is corrupted")

// Meta page format (physical page 0, little endian):
//
//	---------------------------------------------------------------------------
//	| NumAllocatedPages (4) | NumExtents (4) | Checksum (4) | PageSize (4) |
//	---------------------------------------------------------------------------
//	| BitmapSize (4) | ExtentUsedPage[] (4 each) |
//	---------------------------------------------------------------------------
//
// Checksum is murmur3 of the whole page with the checksum field zeroed.
// PageSize and BitmapSize are the geometry the file was created with.
// An all zero page is a database file which never flushed its meta page.
const (
	metaOffsetNumAllocatedPages = 0
	metaOffsetNumExtents        = 4
	metaOffsetChecksum          = 8
	metaOffsetPageSize          = 12
	metaOffsetBitmapSize        = 16
	metaOffsetExtentUsedPage    = 20
)

// largest page size accepted from a meta page on disk
const maxPageSize = uint32(1 << 24)

type MetaPage struct {
	numAllocatedPages uint32
	numExtents        uint32
	pageSize          uint32
	bitmapSize        uint32
	extentUsedPage    []uint32
}

// MaxExtents returns how many extent counters a meta page of pageSize bytes holds.
func MaxExtents(pageSize uint32) uint32 {
	return (pageSize - metaOffsetExtentUsedPage) / 4
}

func newMetaPage(pageSize uint32, bitmapSize uint32) *MetaPage {
	return &MetaPage{0, 0, pageSize, bitmapSize, make([]uint32, MaxExtents(pageSize))}
}

// GetConfig returns the geometry recorded in the meta page
func (m *MetaPage) GetConfig() *DiskManagerConfig {
	return &DiskManagerConfig{PageSize: m.pageSize, BitmapSize: m.bitmapSize}
}

func (m *MetaPage) GetNumAllocatedPages() uint32 {
	return m.numAllocatedPages
}

func (m *MetaPage) GetNumExtents() uint32 {
	return m.numExtents
}

func (m *MetaPage) GetExtentUsedPage(extent uint32) uint32 {
	if extent >= uint32(len(m.extentUsedPage)) {
		return 0
	}
	return m.extentUsedPage[extent]
}

func (m *MetaPage) GetMaxExtents() uint32 {
	return uint32(len(m.extentUsedPage))
}

func (m *MetaPage) Copy() *MetaPage {
	used := make([]uint32, len(m.extentUsedPage))
	copy(used, m.extentUsedPage)
	return &MetaPage{m.numAllocatedPages, m.numExtents, m.pageSize, m.bitmapSize, used}
}

func (m *MetaPage) SerializeTo(buf []byte) {
	for ii := range buf {
		buf[ii] = 0
	}
	binary.LittleEndian.PutUint32(buf[metaOffsetNumAllocatedPages:], m.numAllocatedPages)
	binary.LittleEndian.PutUint32(buf[metaOffsetNumExtents:], m.numExtents)
	binary.LittleEndian.PutUint32(buf[metaOffsetPageSize:], m.pageSize)
	binary.LittleEndian.PutUint32(buf[metaOffsetBitmapSize:], m.bitmapSize)
	for ii, used := range m.extentUsedPage {
		binary.LittleEndian.PutUint32(buf[metaOffsetExtentUsedPage+4*ii:], used)
	}
	binary.LittleEndian.PutUint32(buf[metaOffsetChecksum:], murmur3.Sum32(buf))
}

// DeserializeMetaPage restores a meta page and validates its checksum and counters.
// buf is not modified.
func DeserializeMetaPage(buf []byte) (*MetaPage, error) {
	m := newMetaPage(uint32(len(buf)), 0)
	if isZeroPage(buf) {
		return m, nil
	}

	stored := binary.LittleEndian.Uint32(buf[metaOffsetChecksum:])
	work := make([]byte, len(buf))
	copy(work, buf)
	binary.LittleEndian.PutUint32(work[metaOffsetChecksum:], 0)
	if sum := murmur3.Sum32(work); sum != stored {
		return nil, fmt.Errorf("%w: checksum %08x, expected %08x", ErrMetaPageCorrupted, sum, stored)
	}

	m.numAllocatedPages = binary.LittleEndian.Uint32(buf[metaOffsetNumAllocatedPages:])
	m.numExtents = binary.LittleEndian.Uint32(buf[metaOffsetNumExtents:])
	m.bitmapSize = binary.LittleEndian.Uint32(buf[metaOffsetBitmapSize:])
	if pageSize := binary.LittleEndian.Uint32(buf[metaOffsetPageSize:]); pageSize != m.pageSize {
		return nil, fmt.Errorf("%w: page size %d, read %d bytes", ErrMetaPageCorrupted, pageSize, len(buf))
	}
	if m.numExtents > m.GetMaxExtents() {
		return nil, fmt.Errorf("%w: %d extents exceed capacity %d", ErrMetaPageCorrupted, m.numExtents, m.GetMaxExtents())
	}
	total := uint32(0)
	for ii := range m.extentUsedPage {
		m.extentUsedPage[ii] = binary.LittleEndian.Uint32(buf[metaOffsetExtentUsedPage+4*ii:])
		total += m.extentUsedPage[ii]
	}
	if total != m.numAllocatedPages {
		return nil, fmt.Errorf("%w: extent counters sum to %d, header says %d", ErrMetaPageCorrupted, total, m.numAllocatedPages)
	}
	return m, nil
}

// readMetaPage reads the meta page at the head of db with the page size stored in it.
// It returns nil and no error when the file has no meta page yet.
func readMetaPage(db dbFile, fileSize int64) (*MetaPage, error) {
	if fileSize < metaOffsetExtentUsedPage {
		return nil, nil
	}
	header := make([]byte, metaOffsetExtentUsedPage)
	if n, err := db.ReadAt(header, 0); n < len(header) {
		return nil, err
	}
	if isZeroPage(header) {
		return nil, nil
	}

	pageSize := binary.LittleEndian.Uint32(header[metaOffsetPageSize:])
	if pageSize < minPageSize || pageSize > maxPageSize || int64(pageSize) > fileSize {
		return nil, fmt.Errorf("%w: page size %d in a file of %d bytes", ErrMetaPageCorrupted, pageSize, fileSize)
	}
	buf := make([]byte, pageSize)
	if n, err := db.ReadAt(buf, 0); n < len(buf) {
		return nil, err
	}
	return DeserializeMetaPage(buf)
}

func isZeroPage(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
