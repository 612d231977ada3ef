// Copyright 2025 Meridian, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunk

var (
	_ Iterator = (*Iterator4List)(nil)
	_ Iterator = (*Iterator4Slice)(nil)
)

// Iterator is used to iterate a number of rows.
//
//	for row := it.Begin(); !row.IsEmpty(); row = it.Next() {
//	    ...
//	}
type Iterator interface {
	// Begin resets the cursor of the iterator and returns the first Row.
	Begin() Row

	// Next returns the next Row.
	Next() Row

	// End returns the invalid end Row.
	End() Row

	// Len returns the length.
	Len() int
}

// NewIterator4List returns a Iterator for List.
func NewIterator4List(li *List) *Iterator4List {
	return &Iterator4List{li: li}
}

// Iterator4List is used to iterate rows inside a list.
type Iterator4List struct {
	li     *List
	chkIdx int
	rowIdx int
}

// Begin implements the Iterator interface.
func (it *Iterator4List) Begin() Row {
	if it.li.NumChunks() == 0 {
		return it.End()
	}
	chk := it.li.GetChunk(0)
	row := chk.GetRow(0)
	if chk.NumRows() == 1 {
		it.chkIdx = 1
		it.rowIdx = 0
	} else {
		it.chkIdx = 0
		it.rowIdx = 1
	}
	return row
}

// Next implements the Iterator interface.
func (it *Iterator4List) Next() Row {
	if it.chkIdx >= it.li.NumChunks() {
		it.chkIdx = it.li.NumChunks()
		return it.End()
	}
	chk := it.li.GetChunk(it.chkIdx)
	row := chk.GetRow(it.rowIdx)
	it.rowIdx++
	if it.rowIdx == chk.NumRows() {
		it.rowIdx = 0
		it.chkIdx++
	}
	return row
}

// End implements the Iterator interface.
func (*Iterator4List) End() Row {
	return Row{}
}

// Len implements the Iterator interface.
func (it *Iterator4List) Len() int {
	return it.li.Len()
}

// NewIterator4Slice returns an Iterator for a Row slice.
func NewIterator4Slice(rows []Row) *Iterator4Slice {
	return &Iterator4Slice{
		rows:   rows,
		cursor: 0,
	}
}

// Iterator4Slice is used to iterate rows inside a slice.
type Iterator4Slice struct {
	rows   []Row
	cursor int
}

// Begin implements the Iterator interface.
func (it *Iterator4Slice) Begin() Row {
	if it.Len() == 0 {
		return it.End()
	}
	it.cursor = 1
	return it.rows[0]
}

// Next implements the Iterator interface.
func (it *Iterator4Slice) Next() Row {
	if l := it.Len(); it.cursor >= l {
		it.cursor = l + 1
		return it.End()
	}
	row := it.rows[it.cursor]
	it.cursor++
	return row
}

// End implements the Iterator interface.
func (*Iterator4Slice) End() Row {
	return Row{}
}

// Len implements the Iterator interface.
func (it *Iterator4Slice) Len() int {
	return len(it.rows)
}

// Reset sets the row slice of the iterator and resets the cursor.
func (it *Iterator4Slice) Reset(rows []Row) {
	it.rows = rows
	it.cursor = 0
}
