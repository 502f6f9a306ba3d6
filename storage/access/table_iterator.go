// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package access

import (
	"github.com/ryogrid/HeapStoreDB/storage/page"
	"github.com/ryogrid/HeapStoreDB/storage/record"
)

// TableIterator is the access method for table heaps
//
// It iterates through a table heap when Next is called.
// The row that it is being pointed to can be accessed with the method Current.
// The row is a copy taken when the iterator reached it, so later changes of the heap
// are not seen through it.
// A scan which stopped because a page could not be fetched is at the end too;
// Err tells it apart from the end of the table.
type TableIterator struct {
	tableHeap *TableHeap
	row       *record.Row
	err       error
}

// Current points to the current row. It is nil at the end.
func (it *TableIterator) Current() *record.Row {
	return it.row
}

// GetRID returns the RID of the current row, InvalidRID at the end
func (it *TableIterator) GetRID() page.RID {
	if it.row == nil {
		return page.InvalidRID
	}
	return it.row.GetRID()
}

// Err returns the error which stopped the iteration, nil at the real end
func (it *TableIterator) Err() error {
	return it.err
}

// IsEnd checks if the iterator is at the end
func (it *TableIterator) IsEnd() bool {
	return it.row == nil
}

// Equals compares the positions of two iterators
func (it *TableIterator) Equals(other *TableIterator) bool {
	return it.GetRID() == other.GetRID()
}

// Next advances the iterator trying to find the next row
// The next row can be inside the same page of the current row
// or it can be in one of the following pages
func (it *TableIterator) Next() *record.Row {
	if it.row == nil {
		return nil
	}
	rid := it.row.GetRID()
	it.row, it.err = it.tableHeap.seekLiveRow(rid.GetPageId(), &rid)
	return it.row
}
