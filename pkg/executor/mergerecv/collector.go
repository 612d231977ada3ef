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
	"context"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
	"github.com/meridiandb/meridian/pkg/util/logutil"
	"github.com/meridiandb/meridian/pkg/util/memory"
)

// inputCollector drains the loader into one shared buffer and records the
// partition boundaries as row count deltas. The buffer lives only for the
// duration of a single merge invocation.
type inputCollector struct {
	loader DependencyLoader
	buf    *chunk.List
	pmp    *progressMonitor
}

func newInputCollector(loader DependencyLoader, fieldTypes []*types.FieldType, maxChunkSize int, parent *memory.Tracker, pmp *progressMonitor) *inputCollector {
	buf := chunk.NewList(fieldTypes, maxChunkSize)
	buf.GetMemTracker().SetLabel(memory.LabelForInputBuffer)
	if parent != nil {
		buf.GetMemTracker().AttachTo(parent)
	}
	return &inputCollector{loader: loader, buf: buf, pmp: pmp}
}

// collect pulls batches until the loader reports none remain. Every call
// that grew the buffer contributes one entry to the returned partition row
// counts; a batch may carry zero rows for an empty partition, which leaves
// no entry behind.
func (c *inputCollector) collect(ctx context.Context) ([]int64, error) {
	partitionRowCounts := make([]int64, 0, 8)
	prevLen := int64(0)
	for {
		loadedDeps, err := c.loader.LoadNextBatch(ctx, c.buf)
		if err != nil {
			return nil, errors.Trace(err)
		}
		curLen := int64(c.buf.Len())
		if curLen != prevLen {
			logutil.BgLogger().Debug("partition batch collected",
				zap.Int("partition", len(partitionRowCounts)),
				zap.Int64("rows", curLen-prevLen))
			partitionRowCounts = append(partitionRowCounts, curLen-prevLen)
			prevLen = curLen
		}
		if err := c.pmp.check(); err != nil {
			return nil, err
		}
		if loadedDeps <= 0 {
			return partitionRowCounts, nil
		}
	}
}

// unload flattens the buffered chunks into a row slice so the merge can
// address any row by position.
func (c *inputCollector) unload() ([]chunk.Row, error) {
	rows := make([]chunk.Row, 0, c.buf.Len())
	iter := chunk.NewIterator4List(c.buf)
	for row := iter.Begin(); !row.IsEmpty(); row = iter.Next() {
		if err := c.pmp.checkpoint(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *inputCollector) close() {
	c.buf.Clear()
	c.buf.GetMemTracker().Detach()
}
