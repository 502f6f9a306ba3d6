// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"fmt"
	"sync"

	"github.com/ryogrid/HeapStoreDB/common"
)

//ClockReplacer represents the clock replacer algorithm.
// Every frame owns a slot. A slot is in the replacer while its frame is evictable,
// and its reference bit gives it a second chance when the hand passes.
type ClockReplacer struct {
	refBits    []bool
	inReplacer []bool
	clockHand  uint32
	size       uint32
	mutex      *sync.Mutex
}

// Victim removes the victim frame as defined by the replacement policy
func (c *ClockReplacer) Victim() (FrameID, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.size == 0 {
		return 0, false
	}

	numFrames := uint32(len(c.refBits))
	for {
		hand := c.clockHand
		c.clockHand = (c.clockHand + 1) % numFrames
		if !c.inReplacer[hand] {
			continue
		}
		if c.refBits[hand] {
			c.refBits[hand] = false
			continue
		}
		c.inReplacer[hand] = false
		c.size--
		return FrameID(hand), true
	}
}

//Unpin unpins a frame, indicating that it can now be victimized
func (c *ClockReplacer) Unpin(id FrameID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	common.SH_Assert(uint32(id) < uint32(len(c.refBits)), fmt.Sprintf("frame id %d is out of range", id))
	if !c.inReplacer[id] {
		c.inReplacer[id] = true
		c.size++
	}
	c.refBits[id] = true
}

//Pin pins a frame, indicating that it should not be victimized until it is unpinned
func (c *ClockReplacer) Pin(id FrameID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if uint32(id) >= uint32(len(c.refBits)) || !c.inReplacer[id] {
		return
	}
	c.inReplacer[id] = false
	c.refBits[id] = false
	c.size--
}

//Size returns the size of the clock
func (c *ClockReplacer) Size() uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.size
}

func (c *ClockReplacer) String() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	printStr := fmt.Sprintf("ClockReplacer size:%d hand:%d |", c.size, c.clockHand)
	for ii := range c.refBits {
		if c.inReplacer[ii] {
			printStr += fmt.Sprintf("-%d,%v-", ii, c.refBits[ii])
		}
	}
	return printStr
}

//NewClockReplacer instantiates a new clock replacer
func NewClockReplacer(poolSize uint32) *ClockReplacer {
	return &ClockReplacer{make([]bool, poolSize), make([]bool, poolSize), 0, 0, new(sync.Mutex)}
}
