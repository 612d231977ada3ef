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

	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// DependencyLoader delivers the row batches produced by remote partitions.
// Implementations back it with whatever transport delivered the batches;
// this package only consumes already materialized in-memory rows.
type DependencyLoader interface {
	// LoadNextBatch appends the rows of the next pending batch to buf and
	// returns the number of dependencies loaded by this call. A return
	// value <= 0 means all batches have been delivered. The call blocks
	// until a batch is available or ctx is done.
	LoadNextBatch(ctx context.Context, buf *chunk.List) (int, error)
}

// RowSink is the caller owned destination of merged rows. The merge stage
// only appends, it never reads back.
type RowSink interface {
	Insert(row chunk.Row) error
}

// ListSink adapts a chunk.List into a RowSink.
type ListSink struct {
	List *chunk.List
}

// Insert implements the RowSink interface.
func (s *ListSink) Insert(row chunk.Row) error {
	s.List.AppendRow(row)
	return nil
}
