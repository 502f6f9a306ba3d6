package disk

import (
	"github.com/ryogrid/HeapStoreDB/types"
)

// DiskManager is responsible for interacting with disk.
// Page ids passed to it are logical ids. The physical layout (meta page,
// bitmap pages) stays inside the implementation.
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	AllocatePage() (types.PageID, error)
	DeallocatePage(types.PageID) error
	IsPageFree(types.PageID) bool
	FlushMetaPage() error
	GetNumWrites() uint64
	Size() int64
	ShutDown()
	RemoveDBFile()
}
