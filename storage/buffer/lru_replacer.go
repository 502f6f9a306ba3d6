package buffer

import (
	"sync"
)

// LRUReplacer evicts the frame which was unpinned least recently.
// Unpinning a frame which is already tracked keeps its position.
type LRUReplacer struct {
	cList *circularList
	mutex *sync.Mutex
}

func NewLRUReplacer(poolSize uint32) *LRUReplacer {
	return &LRUReplacer{newCircularList(poolSize), new(sync.Mutex)}
}

func (l *LRUReplacer) Victim() (FrameID, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.cList.size == 0 {
		return 0, false
	}
	frameID := l.cList.head.key
	l.cList.remove(frameID)
	return frameID, true
}

func (l *LRUReplacer) Pin(id FrameID) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.cList.remove(id)
}

func (l *LRUReplacer) Unpin(id FrameID) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.cList.hasKey(id) || l.cList.isFull() {
		return
	}
	l.cList.insert(id)
}

func (l *LRUReplacer) Size() uint32 {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.cList.size
}

func (l *LRUReplacer) String() string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return "LRUReplacer " + l.cList.String()
}
