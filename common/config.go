// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

// when true, latches detect deadlocks and the buffer pool dumps its state on exhaustion
var EnableDebug bool = false

// when true, NewDiskManagerTest hands out an in-memory disk manager
var EnableOnMemStorage bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// invalid log sequence number
	InvalidLSN = -1
	// physical page id of the disk meta page
	MetaPagePhysicalID = 0
	// size of a data page in byte
	PageSize = 4096
	// frame count used by tests which need a small pool
	BufferPoolMaxFrameNumForTest = 32
)

// magic numbers written in front of serialized objects
const (
	RowMagicNum    = uint32(200715)
	ColumnMagicNum = uint32(210928)
	SchemaMagicNum = uint32(200915)
)
