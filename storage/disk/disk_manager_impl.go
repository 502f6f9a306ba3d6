// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/types"
)

const ErrFileFull = errors.Error("no extent is left in the database file")
const ErrShortWrite = errors.Error("bytes written not equals page size")
const ErrBufferTooSmall = errors.Error("page buffer is smaller than page size")

// DiskManagerImpl is the disk implementation of DiskManager.
// Allocation state is kept in a meta page (physical page 0) and one bitmap page per extent.
// mutex serializes every file access and every meta/bitmap update.
// Helpers whose name starts with a lower case letter expect the caller to hold it.
type DiskManagerImpl struct {
	db        dbFile
	fileName  string
	config    DiskManagerConfig
	meta      *MetaPage
	bitmapBuf []byte
	numWrites uint64
	size      int64
	mutex     *sync.Mutex
}

// NewDiskManagerImpl opens (or creates) a database file.
// config may be nil: a new file gets the default geometry and an existing one the geometry
// stored in its meta page. A config which does not match the stored geometry is rejected.
func NewDiskManagerImpl(dbFilename string, config *DiskManagerConfig) (*DiskManagerImpl, error) {
	file, err := openOSDBFile(dbFilename)
	if err != nil {
		common.ShPrintf(common.ERROR, "can't open db file %s: %v\n", dbFilename, err)
		return nil, err
	}
	d, err := newDiskManagerImpl(file, dbFilename, config)
	if err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

// NewVirtualDiskManagerImpl returns a disk manager whose file lives in memory. config may be nil.
func NewVirtualDiskManagerImpl(dbFilename string, config *DiskManagerConfig) (*DiskManagerImpl, error) {
	return newDiskManagerImpl(newMemDBFile(), dbFilename, config)
}

func newDiskManagerImpl(db dbFile, dbFilename string, config *DiskManagerConfig) (*DiskManagerImpl, error) {
	fileSize, err := db.Size()
	if err != nil {
		common.ShPrintf(common.ERROR, "file info error: %v\n", err)
		return nil, err
	}

	meta, err := readMetaPage(db, fileSize)
	if err != nil {
		common.ShPrintf(common.ERROR, "%s: %v\n", dbFilename, err)
		return nil, err
	}
	// an existing file keeps the geometry it was created with
	switch {
	case meta != nil && config == nil:
		config = meta.GetConfig()
	case meta != nil && *config != *meta.GetConfig():
		stored := meta.GetConfig()
		return nil, fmt.Errorf("%w: %s was created with page size %d and bitmap size %d, not %d and %d",
			ErrInvalidDiskConfig, dbFilename, stored.PageSize, stored.BitmapSize, config.PageSize, config.BitmapSize)
	case config == nil:
		config = DefaultDiskManagerConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if meta == nil {
		meta = newMetaPage(config.PageSize, config.BitmapSize)
	}

	return &DiskManagerImpl{
		db:        db,
		fileName:  dbFilename,
		config:    *config,
		meta:      meta,
		bitmapBuf: make([]byte, config.PageSize),
		size:      fileSize,
		mutex:     new(sync.Mutex),
	}, nil
}

// ReadPage reads a logical page into pageData
func (d *DiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.readPhysicalPage(MapPageID(pageID, d.config.BitmapSize), pageData)
}

// WritePage writes pageData to a logical page
func (d *DiskManagerImpl) WritePage(pageID types.PageID, pageData []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.writePhysicalPage(MapPageID(pageID, d.config.BitmapSize), pageData)
}

// ReadPhysicalPage reads a page by its position in the file.
// Pages past the end of the file read as zeros.
func (d *DiskManagerImpl) ReadPhysicalPage(physicalPageID types.PageID, pageData []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.readPhysicalPage(physicalPageID, pageData)
}

// WritePhysicalPage writes a page by its position in the file and syncs the file.
func (d *DiskManagerImpl) WritePhysicalPage(physicalPageID types.PageID, pageData []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.writePhysicalPage(physicalPageID, pageData)
}

func (d *DiskManagerImpl) readPhysicalPage(physicalPageID types.PageID, pageData []byte) error {
	common.SH_Assert(physicalPageID.IsValid(), fmt.Sprintf("invalid physical page id: %d", physicalPageID))
	pageSize := int64(d.config.PageSize)
	if int64(len(pageData)) < pageSize {
		return ErrBufferTooSmall
	}
	pageData = pageData[:pageSize]

	offset := int64(physicalPageID) * pageSize
	if offset >= d.size {
		clear(pageData)
		return nil
	}

	bytesRead, err := d.db.ReadAt(pageData, offset)
	if err != nil && err != io.EOF {
		common.ShPrintf(common.ERROR, "I/O error while reading physical page %d: %v\n", physicalPageID, err)
		return err
	}
	if int64(bytesRead) < pageSize {
		clear(pageData[bytesRead:])
	}
	return nil
}

func (d *DiskManagerImpl) writePhysicalPage(physicalPageID types.PageID, pageData []byte) error {
	common.SH_Assert(physicalPageID.IsValid(), fmt.Sprintf("invalid physical page id: %d", physicalPageID))
	pageSize := int64(d.config.PageSize)
	if int64(len(pageData)) < pageSize {
		return ErrBufferTooSmall
	}

	offset := int64(physicalPageID) * pageSize
	bytesWritten, err := d.db.WriteAt(pageData[:pageSize], offset)
	if err != nil {
		common.ShPrintf(common.ERROR, "I/O error while writing physical page %d: %v\n", physicalPageID, err)
		return err
	}
	if int64(bytesWritten) != pageSize {
		common.ShPrintf(common.ERROR, "short write at physical page %d: %d bytes\n", physicalPageID, bytesWritten)
		return ErrShortWrite
	}
	if err := d.db.Sync(); err != nil {
		common.ShPrintf(common.ERROR, "sync failed after writing physical page %d: %v\n", physicalPageID, err)
		return err
	}

	d.numWrites++
	if offset+pageSize > d.size {
		d.size = offset + pageSize
	}
	return nil
}

// AllocatePage returns the lowest free logical page id of the lowest extent which has one.
func (d *DiskManagerImpl) AllocatePage() (types.PageID, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	bitmapSize := d.config.BitmapSize
	for extent := uint32(0); extent < d.meta.GetMaxExtents(); extent++ {
		if d.meta.GetExtentUsedPage(extent) >= bitmapSize {
			continue
		}

		bitmapPageID := BitmapPhysicalPageID(extent, bitmapSize)
		if err := d.readPhysicalPage(bitmapPageID, d.bitmapBuf); err != nil {
			return types.InvalidPageID, err
		}
		offset, ok := NewBitmapPage(d.bitmapBuf, bitmapSize).AllocatePage()
		if !ok {
			common.ShPrintf(common.WARN, "extent %d is full but meta page counts %d pages\n", extent, d.meta.GetExtentUsedPage(extent))
			continue
		}
		if err := d.writePhysicalPage(bitmapPageID, d.bitmapBuf); err != nil {
			return types.InvalidPageID, err
		}

		if extent >= d.meta.numExtents {
			d.meta.numExtents = extent + 1
		}
		d.meta.extentUsedPage[extent]++
		d.meta.numAllocatedPages++

		pageID := types.PageID(extent*bitmapSize + offset)
		if common.EnableDebug {
			common.ShPrintf(common.DEBUG_INFO, "AllocatePage: pageID=%d extent=%d offset=%d\n", pageID, extent, offset)
		}
		return pageID, nil
	}
	return types.InvalidPageID, ErrFileFull
}

// DeallocatePage frees a logical page. Freeing a free page does nothing.
func (d *DiskManagerImpl) DeallocatePage(pageID types.PageID) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	loc := LocatePage(pageID, d.config.BitmapSize)
	extent, offset := loc.First, loc.Second
	if extent >= d.meta.numExtents {
		return nil
	}

	bitmapPageID := BitmapPhysicalPageID(extent, d.config.BitmapSize)
	if err := d.readPhysicalPage(bitmapPageID, d.bitmapBuf); err != nil {
		return err
	}
	if !NewBitmapPage(d.bitmapBuf, d.config.BitmapSize).DeallocatePage(offset) {
		return nil
	}
	if err := d.writePhysicalPage(bitmapPageID, d.bitmapBuf); err != nil {
		return err
	}

	d.meta.extentUsedPage[extent]--
	d.meta.numAllocatedPages--
	return nil
}

// IsPageFree reports whether a logical page is unallocated.
// A bitmap which can not be read is reported as not free.
func (d *DiskManagerImpl) IsPageFree(pageID types.PageID) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	loc := LocatePage(pageID, d.config.BitmapSize)
	extent, offset := loc.First, loc.Second
	if extent >= d.meta.numExtents {
		return true
	}

	if err := d.readPhysicalPage(BitmapPhysicalPageID(extent, d.config.BitmapSize), d.bitmapBuf); err != nil {
		return false
	}
	return NewBitmapPage(d.bitmapBuf, d.config.BitmapSize).IsPageFree(offset)
}

// FlushMetaPage writes the in-memory meta page to physical page 0
func (d *DiskManagerImpl) FlushMetaPage() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.flushMetaPage()
}

func (d *DiskManagerImpl) flushMetaPage() error {
	buf := make([]byte, d.config.PageSize)
	d.meta.SerializeTo(buf)
	return d.writePhysicalPage(common.MetaPagePhysicalID, buf)
}

// GetMetaPage returns a copy of the current meta page
func (d *DiskManagerImpl) GetMetaPage() *MetaPage {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.meta.Copy()
}

func (d *DiskManagerImpl) GetConfig() DiskManagerConfig {
	return d.config
}

// GetNumWrites returns the number of disk writes
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.numWrites
}

// Size returns the size of the file in disk
func (d *DiskManagerImpl) Size() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.size
}

// ShutDown persists the meta page and closes the database file
func (d *DiskManagerImpl) ShutDown() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.flushMetaPage(); err != nil {
		common.ShPrintf(common.ERROR, "failed to flush meta page of %s: %v\n", d.fileName, err)
	}
	d.db.Close()
}

// ATTENTION: this method can be call after calling of Shutdown method
func (d *DiskManagerImpl) RemoveDBFile() {
	if _, ok := d.db.(*osDBFile); ok {
		os.Remove(d.fileName)
	}
}
