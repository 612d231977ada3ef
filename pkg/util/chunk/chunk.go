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

import (
	"unsafe"

	"github.com/meridiandb/meridian/pkg/types"
)

// Chunk stores multiple rows of data in column major layout.
// Chunk is not thread-safe, a Chunk is owned by exactly one goroutine
// at any point of its lifetime.
type Chunk struct {
	columns []*column
	// capacity indicates the max number of rows this chunk can hold.
	capacity int
}

type column struct {
	data []types.Datum
}

var datumSize = int64(unsafe.Sizeof(types.Datum{}))

// New creates a new Chunk with the given field types and capacity.
func New(fields []*types.FieldType, capacity int) *Chunk {
	chk := &Chunk{
		columns:  make([]*column, 0, len(fields)),
		capacity: capacity,
	}
	for range fields {
		chk.columns = append(chk.columns, &column{data: make([]types.Datum, 0, capacity)})
	}
	return chk
}

// NewChunkWithCapacity creates a new Chunk with the given field types and capacity.
func NewChunkWithCapacity(fields []*types.FieldType, capacity int) *Chunk {
	return New(fields, capacity)
}

// NumCols returns the number of columns in the chunk.
func (c *Chunk) NumCols() int {
	return len(c.columns)
}

// NumRows returns the number of rows in the chunk.
func (c *Chunk) NumRows() int {
	if len(c.columns) == 0 {
		return 0
	}
	return len(c.columns[0].data)
}

// Capacity returns the max number of rows this chunk can hold.
func (c *Chunk) Capacity() int {
	return c.capacity
}

// IsFull returns if this chunk is considered full.
func (c *Chunk) IsFull() bool {
	return c.NumRows() >= c.capacity
}

// Reset resets the chunk, so it can be reused.
func (c *Chunk) Reset() {
	for _, col := range c.columns {
		col.data = col.data[:0]
	}
}

// GetRow gets the Row in the chunk with the row index.
func (c *Chunk) GetRow(idx int) Row {
	return Row{c: c, idx: idx}
}

// AppendRow appends a row to the chunk.
func (c *Chunk) AppendRow(row Row) {
	for i, col := range c.columns {
		col.data = append(col.data, row.GetDatum(i))
	}
}

// AppendDatum appends a datum into the specific column.
func (c *Chunk) AppendDatum(colIdx int, d types.Datum) {
	c.columns[colIdx].data = append(c.columns[colIdx].data, d)
}

// AppendNull appends a NULL into the specific column.
func (c *Chunk) AppendNull(colIdx int) {
	c.columns[colIdx].data = append(c.columns[colIdx].data, types.Datum{})
}

// AppendInt64 appends an int64 value into the specific column.
func (c *Chunk) AppendInt64(colIdx int, i int64) {
	c.AppendDatum(colIdx, types.NewIntDatum(i))
}

// AppendUint64 appends a uint64 value into the specific column.
func (c *Chunk) AppendUint64(colIdx int, u uint64) {
	c.AppendDatum(colIdx, types.NewDatum(u))
}

// AppendFloat64 appends a float64 value into the specific column.
func (c *Chunk) AppendFloat64(colIdx int, f float64) {
	c.AppendDatum(colIdx, types.NewFloat64Datum(f))
}

// AppendString appends a string value into the specific column.
func (c *Chunk) AppendString(colIdx int, s string) {
	c.AppendDatum(colIdx, types.NewStringDatum(s))
}

// MemoryUsage returns the total memory usage of this chunk in bytes.
// The result is an estimation, variable length values only account for
// their backing array.
func (c *Chunk) MemoryUsage() (sum int64) {
	for _, col := range c.columns {
		sum += int64(cap(col.data)) * datumSize
		for i := range col.data {
			sum += int64(len(col.data[i].GetBytes()))
		}
	}
	return sum
}
