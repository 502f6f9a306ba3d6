package disk

import (
	"fmt"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
)

const ErrInvalidDiskConfig = errors.Error("invalid disk manager config")

// smallest page which still holds the meta header, one extent counter and one bitmap byte
const minPageSize = uint32(metaOffsetExtentUsedPage + 4)

// DiskManagerConfig decides the physical geometry of a database file.
// BitmapSize is the number of data pages one bitmap page (= one extent) tracks.
type DiskManagerConfig struct {
	PageSize   uint32
	BitmapSize uint32
}

func DefaultDiskManagerConfig() *DiskManagerConfig {
	return &DiskManagerConfig{
		PageSize:   common.PageSize,
		BitmapSize: MaxBitmapSize(common.PageSize),
	}
}

func (c *DiskManagerConfig) validate() error {
	if c.PageSize < minPageSize {
		return fmt.Errorf("%w: page size %d is smaller than %d", ErrInvalidDiskConfig, c.PageSize, minPageSize)
	}
	if c.BitmapSize == 0 || c.BitmapSize > MaxBitmapSize(c.PageSize) {
		return fmt.Errorf("%w: bitmap size %d is out of range (1..%d)", ErrInvalidDiskConfig, c.BitmapSize, MaxBitmapSize(c.PageSize))
	}
	return nil
}
