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
	"github.com/meridiandb/meridian/pkg/types"
)

// Row represents a row of data, it borrows the underlying storage from
// the Chunk it belongs to and is only valid for the Chunk's lifetime.
type Row struct {
	c   *Chunk
	idx int
}

// Chunk returns the Chunk which the row belongs to.
func (r Row) Chunk() *Chunk {
	return r.c
}

// Idx returns the row index of the Chunk.
func (r Row) Idx() int {
	return r.idx
}

// Len returns the number of values in the row.
func (r Row) Len() int {
	return r.c.NumCols()
}

// IsEmpty returns true if the Row is empty.
func (r Row) IsEmpty() bool {
	return r.c == nil
}

// GetDatum returns the datum at the colIdx position.
func (r Row) GetDatum(colIdx int) types.Datum {
	return r.c.columns[colIdx].data[r.idx]
}

// IsNull reports whether the value at the colIdx position is NULL.
func (r Row) IsNull(colIdx int) bool {
	return r.c.columns[colIdx].data[r.idx].IsNull()
}

// GetInt64 returns the int64 value at the colIdx position.
func (r Row) GetInt64(colIdx int) int64 {
	d := r.GetDatum(colIdx)
	return d.GetInt64()
}

// GetUint64 returns the uint64 value at the colIdx position.
func (r Row) GetUint64(colIdx int) uint64 {
	d := r.GetDatum(colIdx)
	return d.GetUint64()
}

// GetFloat64 returns the float64 value at the colIdx position.
func (r Row) GetFloat64(colIdx int) float64 {
	d := r.GetDatum(colIdx)
	return d.GetFloat64()
}

// GetString returns the string value at the colIdx position.
func (r Row) GetString(colIdx int) string {
	d := r.GetDatum(colIdx)
	return d.GetString()
}

// GetBytes returns the bytes value at the colIdx position.
func (r Row) GetBytes(colIdx int) []byte {
	d := r.GetDatum(colIdx)
	return d.GetBytes()
}
