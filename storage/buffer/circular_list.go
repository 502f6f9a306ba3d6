// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"fmt"

	"github.com/ryogrid/HeapStoreDB/common"
)

type node struct {
	key  FrameID
	next *node
	prev *node
}

// circularList is a doubly linked ring of frame ids with O(1) lookup by key.
// head is the oldest inserted key, tail the newest.
type circularList struct {
	head       *node
	tail       *node
	size       uint32
	capacity   uint32
	supportMap map[FrameID]*node
}

func (c *circularList) hasKey(key FrameID) bool {
	_, ok := c.supportMap[key]
	return ok
}

// insert appends key after tail. Inserting an existing key does nothing.
func (c *circularList) insert(key FrameID) {
	if c.hasKey(key) {
		return
	}
	common.SH_Assert(c.size < c.capacity, "circularList::insert capacity is full")

	newNode := &node{key, nil, nil}
	c.supportMap[key] = newNode
	c.size++

	if c.head == nil {
		newNode.next = newNode
		newNode.prev = newNode
		c.head = newNode
		c.tail = newNode
		return
	}

	newNode.next = c.head
	newNode.prev = c.tail
	c.tail.next = newNode
	c.head.prev = newNode
	c.tail = newNode
}

func (c *circularList) remove(key FrameID) {
	node, ok := c.supportMap[key]
	if !ok {
		return
	}

	delete(c.supportMap, key)
	c.size--

	if c.size == 0 {
		c.head = nil
		c.tail = nil
		return
	}

	if node == c.head {
		c.head = c.head.next
	}
	if node == c.tail {
		c.tail = c.tail.prev
	}
	node.next.prev = node.prev
	node.prev.next = node.next
}

func (c *circularList) isFull() bool {
	return c.size == c.capacity
}

func (c *circularList) String() string {
	if c.size == 0 {
		return "circularList is empty."
	}
	ptr := c.head
	printStr := fmt.Sprintf("circularList size:%d supportMap len:%d |", c.size, len(c.supportMap))
	for i := uint32(0); i < c.size; i++ {
		printStr += fmt.Sprintf("-%v,%v,%v-", ptr.key, ptr.prev.key, ptr.next.key)
		ptr = ptr.next
	}
	return printStr
}

func newCircularList(maxSize uint32) *circularList {
	return &circularList{nil, nil, 0, maxSize, make(map[FrameID]*node)}
}
