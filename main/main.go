package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/storage/access"
	"github.com/ryogrid/HeapStoreDB/storage/buffer"
	"github.com/ryogrid/HeapStoreDB/storage/disk"
	"github.com/ryogrid/HeapStoreDB/storage/record"
	"github.com/ryogrid/HeapStoreDB/storage/table/column"
	"github.com/ryogrid/HeapStoreDB/storage/table/schema"
	"github.com/ryogrid/HeapStoreDB/types"
)

// heapstore prints the allocation state of a database file.
// With -fill it first creates a table heap of sample rows in the file.
func main() {
	dbPath := flag.String("db", "", "database file")
	bitmapSize := flag.Uint("bitmap-size", 0, "pages per extent of a new file (0: the one stored in the file, or the largest a bitmap page can hold)")
	showPages := flag.Bool("pages", false, "print the state of every logical page")
	fill := flag.Int("fill", 0, "create a table heap with this many sample rows")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *debug {
		common.EnableDebug = true
		common.LogLevelSetting |= common.DEBUG_INFO | common.INFO
	}
	if _, err := os.Stat(*dbPath); err != nil && *fill == 0 {
		fmt.Fprintf(os.Stderr, "heapstore: %v\n", err)
		os.Exit(1)
	}

	// without -bitmap-size an existing file is opened with the geometry stored in it
	var config *disk.DiskManagerConfig
	if *bitmapSize != 0 {
		config = disk.DefaultDiskManagerConfig()
		config.BitmapSize = uint32(*bitmapSize)
	}
	dm, err := disk.NewDiskManagerImpl(*dbPath, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "heapstore: %v\n", err)
		os.Exit(1)
	}
	defer dm.ShutDown()

	if *fill > 0 {
		if err := fillSampleHeap(dm, *fill); err != nil {
			fmt.Fprintf(os.Stderr, "heapstore: %v\n", err)
			dm.ShutDown()
			os.Exit(1)
		}
	}
	printMeta(dm, *showPages)
}

func fillSampleHeap(dm *disk.DiskManagerImpl, rowNum int) error {
	bpm := buffer.NewBufferPoolManager(common.BufferPoolMaxFrameNumForTest, dm)
	sampleSchema := schema.NewSchema([]*column.Column{
		column.NewColumn("id", types.Integer, 0, false, true),
		column.NewCharColumn("name", 32, 1, true, false),
		column.NewColumn("score", types.Float, 2, true, false),
	})
	th, err := access.NewTableHeap(bpm, sampleSchema, nil, nil)
	if err != nil {
		return err
	}
	for ii := 0; ii < rowNum; ii++ {
		score := types.NewNullField(types.Float)
		if ii%2 == 0 {
			score = types.NewFloatField(float32(ii) / 2)
		}
		row := record.NewRow([]*types.Field{types.NewIntField(int32(ii)), types.NewCharField(fmt.Sprintf("row-%d", ii)), score})
		if err := th.InsertTuple(row); err != nil {
			return fmt.Errorf("insert of row %d: %w", ii, err)
		}
	}
	fmt.Printf("table heap: first page %d, %d rows\n", th.GetFirstPageId(), rowNum)
	return bpm.FlushAllPages()
}

func printMeta(dm *disk.DiskManagerImpl, showPages bool) {
	config := dm.GetConfig()
	meta := dm.GetMetaPage()
	fmt.Printf("page size: %d, bitmap size: %d, file size: %d bytes\n", config.PageSize, config.BitmapSize, dm.Size())
	fmt.Printf("allocated pages: %d, extents: %d/%d\n", meta.GetNumAllocatedPages(), meta.GetNumExtents(), meta.GetMaxExtents())
	for extent := uint32(0); extent < meta.GetNumExtents(); extent++ {
		fmt.Printf("  extent %d: bitmap at physical page %d, %d/%d pages used\n",
			extent, disk.BitmapPhysicalPageID(extent, config.BitmapSize), meta.GetExtentUsedPage(extent), config.BitmapSize)
	}
	if !showPages {
		return
	}
	for extent := uint32(0); extent < meta.GetNumExtents(); extent++ {
		for offset := uint32(0); offset < config.BitmapSize; offset++ {
			logical := types.PageID(extent*config.BitmapSize + offset)
			state := "free"
			if !dm.IsPageFree(logical) {
				state = "used"
			}
			fmt.Printf("  page %d (physical %d): %s\n", logical, disk.MapPageID(logical, config.BitmapSize), state)
		}
	}
}
