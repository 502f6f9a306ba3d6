package recovery

import (
	"sync"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/types"
)

/**
 * LogManager hands out log sequence numbers to page mutations.
 * Records are not buffered or written anywhere. Table pages stamp the returned
 * LSN into their header so a later log writer can order them.
 */
type LogManager struct {
	mutex          sync.Mutex
	enabled        bool
	nextLSN        types.LSN
	lastAppended   types.LSN
	appendedCounts map[LogRecordType]uint64
}

func NewLogManager() *LogManager {
	return &LogManager{
		nextLSN:        0,
		lastAppended:   types.InvalidLSN,
		appendedCounts: make(map[LogRecordType]uint64),
	}
}

func (log_manager *LogManager) ActivateLogging() {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	log_manager.enabled = true
}

func (log_manager *LogManager) DeactivateLogging() {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	log_manager.enabled = false
}

func (log_manager *LogManager) IsEnabledLogging() bool {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	return log_manager.enabled
}

func (log_manager *LogManager) GetNextLSN() types.LSN {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	return log_manager.nextLSN
}

// GetLastLSN returns the lsn of the last appended record, InvalidLSN before the first one
func (log_manager *LogManager) GetLastLSN() types.LSN {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	return log_manager.lastAppended
}

// GetAppendedCount returns how many records of kind were appended
func (log_manager *LogManager) GetAppendedCount(kind LogRecordType) uint64 {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()
	return log_manager.appendedCounts[kind]
}

/*
* assign the next lsn to a record of kind about rid
* @return: lsn that is assigned to this log record.
* InvalidLSN when logging is not active
 */
func (log_manager *LogManager) AppendLogRecord(kind LogRecordType, rid page.RID) types.LSN {
	log_manager.mutex.Lock()
	defer log_manager.mutex.Unlock()

	if !log_manager.enabled {
		return types.InvalidLSN
	}
	lsn := log_manager.nextLSN
	log_manager.nextLSN++
	log_manager.lastAppended = lsn
	log_manager.appendedCounts[kind]++
	common.ShPrintf(common.DEBUG_INFO_DETAIL, "AppendLogRecord: kind=%s rid=%s lsn=%d\n", kind, rid, lsn)
	return lsn
}
