package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryogrid/HeapStoreDB/storage/disk"
	"github.com/ryogrid/HeapStoreDB/types"
)

func TestPageGuardReleasesOnce(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(2, dm)

	guard := bpm.NewPageGuard()
	assert.NotNil(t, guard)
	pageID := guard.PageID()
	assert.Equal(t, types.PageID(0), pageID)
	guard.Page().Copy(0, []byte("guarded"))

	// second pin through another guard
	second := bpm.FetchPageGuard(pageID)
	assert.Equal(t, int32(2), second.Page().PinCount())

	guard.Release()
	guard.Release()
	assert.True(t, guard.IsReleased())
	assert.Equal(t, int32(1), second.Page().PinCount())
	assert.Panics(t, func() { guard.Page() })

	second.Release()
	assert.True(t, bpm.CheckAllUnpinned())
}

func TestPageGuardMarkDirty(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(1, dm)

	guard := bpm.NewPageGuard()
	pageID := guard.PageID()
	guard.Release()
	assert.True(t, bpm.FlushPage(pageID))

	guard = bpm.FetchPageGuard(pageID)
	guard.Page().Copy(0, []byte("changed"))
	guard.MarkDirty()
	guard.Release()

	// evicting the only frame writes the page back
	other := bpm.NewPageGuard()
	assert.NotNil(t, other)
	other.Release()

	buf := make([]byte, 4096)
	assert.NoError(t, dm.ReadPage(pageID, buf))
	assert.Equal(t, []byte("changed"), buf[:7])
}

func TestPageGuardNilWhenPoolIsFull(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(1, dm)

	guard := bpm.NewPageGuard()
	assert.Nil(t, bpm.NewPageGuard())
	assert.Nil(t, bpm.FetchPageGuard(types.PageID(5)))
	guard.Release()
}
