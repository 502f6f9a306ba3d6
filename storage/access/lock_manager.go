package access

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ryogrid/HeapStoreDB/common"
	"github.com/ryogrid/HeapStoreDB/errors"
	"github.com/ryogrid/HeapStoreDB/storage/page"
)

const ErrRowLocked = errors.Error("row is locked by another owner")

// LockManager keeps the set of exclusively locked rows.
// There is no wait queue. A lock request on a locked row fails at once.
type LockManager struct {
	lockTable mapset.Set[page.RID]
}

func NewLockManager() *LockManager {
	return &LockManager{mapset.NewSet[page.RID]()}
}

// LockExclusive locks rid. It returns false when rid is already locked.
func (lock_manager *LockManager) LockExclusive(rid page.RID) bool {
	locked := lock_manager.lockTable.Add(rid)
	if !locked {
		common.ShPrintf(common.DEBUG_INFO, "LockExclusive: rid=%s is already locked\n", rid)
	}
	return locked
}

func (lock_manager *LockManager) Unlock(rid page.RID) {
	lock_manager.lockTable.Remove(rid)
}

func (lock_manager *LockManager) IsLocked(rid page.RID) bool {
	return lock_manager.lockTable.Contains(rid)
}

func (lock_manager *LockManager) GetLockedCount() int {
	return lock_manager.lockTable.Cardinality()
}
