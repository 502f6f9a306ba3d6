// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"os"

	"github.com/ryogrid/HeapStoreDB/common"
)

// DiskManagerTest is the disk implementation of DiskManager for testing purposes
type DiskManagerTest struct {
	path string
	*DiskManagerImpl
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes.
// It is backed by a temporary file, or by memory when common.EnableOnMemStorage is set.
func NewDiskManagerTest() DiskManager {
	if common.EnableOnMemStorage {
		diskManager, err := NewVirtualDiskManagerImpl("test.db", nil)
		if err != nil {
			panic(err)
		}
		return &DiskManagerTest{"", diskManager}
	}

	// Retrieve a temporary path.
	f, err := os.CreateTemp("", "heapstore")
	if err != nil {
		panic(err)
	}
	path := f.Name()
	f.Close()
	os.Remove(path)

	diskManager, err := NewDiskManagerImpl(path, nil)
	if err != nil {
		panic(err)
	}
	return &DiskManagerTest{path, diskManager}
}

// ShutDown closes of the database file
func (d *DiskManagerTest) ShutDown() {
	if d.path != "" {
		defer os.Remove(d.path)
	}
	d.DiskManagerImpl.ShutDown()
}
