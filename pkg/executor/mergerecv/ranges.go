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

package mergerecv

import (
	"github.com/pingcap/errors"

	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// rowRange is a half-open window [begin, end) over the flattened row
// slice, covering the not yet consumed suffix of one partition's run.
type rowRange struct {
	begin int
	end   int
}

func (r *rowRange) exhausted() bool {
	return r.begin >= r.end
}

// advance moves the cursor past the head row.
func (r *rowRange) advance() {
	r.begin++
}

// partitionRanges tracks the active cursor of every partition run during
// the merge. Ranges keep their arrival order, which makes tie-breaking
// between equal head rows deterministic.
type partitionRanges struct {
	rs []*rowRange
}

// newPartitionRanges lays the per-partition row counts out as contiguous
// windows over the flattened buffer.
func newPartitionRanges(partitionRowCounts []int64) *partitionRanges {
	rs := make([]*rowRange, 0, len(partitionRowCounts))
	begin := 0
	for _, cnt := range partitionRowCounts {
		end := begin + int(cnt)
		rs = append(rs, &rowRange{begin: begin, end: end})
		begin = end
	}
	return &partitionRanges{rs: rs}
}

func (p *partitionRanges) size() int {
	return len(p.rs)
}

func (p *partitionRanges) first() *rowRange {
	return p.rs[0]
}

// pruneExhausted drops every drained range in place, preserving the
// relative order of the survivors.
func (p *partitionRanges) pruneExhausted() {
	kept := p.rs[:0]
	for _, r := range p.rs {
		if !r.exhausted() {
			kept = append(kept, r)
		}
	}
	p.rs = kept
}

// selectMin scans the head row of every active range and returns the range
// holding the smallest one under cmp. Equal heads resolve to the earliest
// range, so repeated runs over the same input produce the same row order.
// The caller must prune exhausted ranges first.
func (p *partitionRanges) selectMin(cmp RowComparator, rows []chunk.Row) (*rowRange, error) {
	minRange := p.rs[0]
	for _, r := range p.rs[1:] {
		c, err := cmp.Compare(rows[r.begin], rows[minRange.begin])
		if err != nil {
			return nil, errors.Trace(err)
		}
		if c < 0 {
			minRange = r
		}
	}
	return minRange, nil
}
