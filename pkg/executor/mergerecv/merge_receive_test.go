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
	"sort"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/meridian/pkg/expression"
	plannerutil "github.com/meridiandb/meridian/pkg/planner/util"
	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

func intFieldTypes() []*types.FieldType {
	return []*types.FieldType{types.NewFieldType(types.TypeLonglong)}
}

func intByItems() []*plannerutil.ByItems {
	return []*plannerutil.ByItems{
		{Expr: &expression.Column{RetType: types.NewFieldType(types.TypeLonglong), Index: 0}},
	}
}

// sliceLoader replays fixed int64 runs, one run per LoadNextBatch call.
type sliceLoader struct {
	partitions [][]int64
	next       int
}

func (l *sliceLoader) LoadNextBatch(_ context.Context, buf *chunk.List) (int, error) {
	if l.next >= len(l.partitions) {
		return 0, nil
	}
	part := l.partitions[l.next]
	l.next++
	for _, v := range part {
		stage := chunk.NewChunkWithCapacity(buf.FieldTypes(), 1)
		stage.AppendInt64(0, v)
		buf.AppendRow(stage.GetRow(0))
	}
	return 1, nil
}

type errLoader struct {
	err error
}

func (l *errLoader) LoadNextBatch(context.Context, *chunk.List) (int, error) {
	return 0, l.err
}

func sinkToInts(sink *ListSink) []int64 {
	got := make([]int64, 0, sink.List.Len())
	iter := chunk.NewIterator4List(sink.List)
	for row := iter.Begin(); !row.IsEmpty(); row = iter.Next() {
		got = append(got, row.GetInt64(0))
	}
	return got
}

func runMerge(t *testing.T, partitions [][]int64, limit, offset int64) ([]int64, error) {
	t.Helper()
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: partitions},
		Sink:       sink,
		Limit:      limit,
		Offset:     offset,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	return sinkToInts(sink), err
}

func TestMergeSortedRuns(t *testing.T) {
	partitions := [][]int64{
		{1, 4, 4, 9, 15},
		{2, 3, 10},
		{0, 7, 7, 7, 20, 21},
		{5},
	}
	want := make([]int64, 0, 15)
	for _, p := range partitions {
		want = append(want, p...)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	got, err := runMerge(t, partitions, UnboundedLimit, 0)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestMergeLimitOffset(t *testing.T) {
	got, err := runMerge(t, [][]int64{{1, 3, 5}, {2, 4, 6}}, 3, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3, 4}, got)
}

func TestMergeLimitOffsetBounds(t *testing.T) {
	partitions := [][]int64{{1, 3, 5, 7}, {2, 4, 6, 8}}
	all := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	total := int64(len(all))

	tests := []struct {
		limit  int64
		offset int64
	}{
		{UnboundedLimit, 0},
		{UnboundedLimit, 3},
		{UnboundedLimit, 8},
		{UnboundedLimit, 100},
		{0, 0},
		{0, 5},
		{1, 0},
		{5, 2},
		{8, 0},
		{100, 4},
	}
	for _, tt := range tests {
		got, err := runMerge(t, partitions, tt.limit, tt.offset)
		require.NoError(t, err)
		wantLen := total - tt.offset
		if wantLen < 0 {
			wantLen = 0
		}
		if tt.limit != UnboundedLimit && tt.limit < wantLen {
			wantLen = tt.limit
		}
		want := all[min64(tt.offset, total) : min64(tt.offset, total)+wantLen]
		require.Equal(t, []int64(want), got, "limit=%d offset=%d", tt.limit, tt.offset)
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func TestMergeEmptyInput(t *testing.T) {
	got, err := runMerge(t, nil, UnboundedLimit, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = runMerge(t, [][]int64{{}, {}, {}}, UnboundedLimit, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

// probeByItems wraps the int key in a scalar function that counts how many
// times the comparator actually evaluated it.
func probeByItems(calls *int) []*plannerutil.ByItems {
	tp := types.NewFieldType(types.TypeLonglong)
	col := &expression.Column{RetType: tp, Index: 0}
	probe := &expression.ScalarFunction{
		FuncName: "probe",
		RetType:  tp,
		Args:     []expression.Expression{col},
		Function: func(_ expression.EvalContext, args []types.Datum) (types.Datum, error) {
			*calls++
			return args[0], nil
		},
	}
	return []*plannerutil.ByItems{{Expr: probe}}
}

func TestSinglePartitionBypassesComparator(t *testing.T) {
	calls := 0
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    probeByItems(&calls),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{}, {7}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
		EvalCtx:    expression.NewEvalContext(nil),
	})
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background()))
	require.Equal(t, []int64{7}, sinkToInts(sink))
	require.Zero(t, calls)
	require.Equal(t, int64(1), exec.EmittedRows())
}

func TestSingleRunWithLimitOffset(t *testing.T) {
	calls := 0
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    probeByItems(&calls),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1, 2, 3, 4, 5, 6}}},
		Sink:       sink,
		Limit:      2,
		Offset:     2,
		EvalCtx:    expression.NewEvalContext(nil),
	})
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background()))
	require.Equal(t, []int64{3, 4}, sinkToInts(sink))
	require.Zero(t, calls)
}

func TestMergeDescending(t *testing.T) {
	byItems := []*plannerutil.ByItems{
		{Expr: &expression.Column{RetType: types.NewFieldType(types.TypeLonglong), Index: 0}, Desc: true},
	}
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    byItems,
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{9, 5, 1}, {8, 4, 2}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
	})
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background()))
	require.Equal(t, []int64{9, 8, 5, 4, 2, 1}, sinkToInts(sink))
}

func TestCancellationBeforeFirstThreshold(t *testing.T) {
	killer := &sqlkiller.SQLKiller{ConnID: 1}
	killer.SendKillSignal(sqlkiller.QueryInterrupted)

	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1, 2}, {3}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
		Killer:     killer,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, sqlkiller.ErrQueryInterrupted, errors.Cause(err))
}

func TestCancellationAtCheckpoint(t *testing.T) {
	// A tiny checkpoint interval makes the per-row budget the one that
	// trips; the signal lands before Execute, the merge must not finish.
	killer := &sqlkiller.SQLKiller{ConnID: 2}
	killer.SendKillSignal(sqlkiller.MaxExecTimeExceeded)

	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:            intByItems(),
		FieldTypes:         intFieldTypes(),
		Loader:             &sliceLoader{partitions: [][]int64{{1, 3, 5}, {2, 4, 6}}},
		Sink:               sink,
		Limit:              UnboundedLimit,
		Killer:             killer,
		CheckpointInterval: 1,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, sqlkiller.ErrMaxExecTimeExceeded, errors.Cause(err))
	require.Empty(t, sinkToInts(sink))
}

func TestLoaderErrorPropagates(t *testing.T) {
	loadErr := errors.New("connection reset by partition 3")
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &errLoader{err: loadErr},
		Sink:       sink,
		Limit:      UnboundedLimit,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, loadErr, errors.Cause(err))
}

func TestExprKeyErrorPropagates(t *testing.T) {
	tp := types.NewFieldType(types.TypeLonglong)
	evalErr := errors.New("division by zero")
	broken := &expression.ScalarFunction{
		FuncName: "broken",
		RetType:  tp,
		Args:     []expression.Expression{&expression.Column{RetType: tp, Index: 0}},
		Function: func(_ expression.EvalContext, _ []types.Datum) (types.Datum, error) {
			return types.Datum{}, evalErr
		},
	}
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    []*plannerutil.ByItems{{Expr: broken}},
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1}, {2}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
		EvalCtx:    expression.NewEvalContext(nil),
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, evalErr, errors.Cause(err))
}

// failAfterSink errors once n rows have been accepted.
type failAfterSink struct {
	n    int
	seen int
	err  error
}

func (s *failAfterSink) Insert(chunk.Row) error {
	s.seen++
	if s.seen > s.n {
		return s.err
	}
	return nil
}

func TestSinkErrorPropagates(t *testing.T) {
	sinkErr := errors.New("downstream full")
	sink := &failAfterSink{n: 2, err: sinkErr}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1, 3}, {2, 4}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.Equal(t, sinkErr, errors.Cause(err))
}

func TestLimitStopsWithoutDraining(t *testing.T) {
	sink := &failAfterSink{n: 1000, err: errors.New("unreachable")}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1, 3, 5, 7}, {2, 4, 6, 8}}},
		Sink:       sink,
		Limit:      2,
	})
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background()))
	require.Equal(t, 2, sink.seen)
	require.Equal(t, int64(2), exec.EmittedRows())
}

func TestTieBreakIsDeterministic(t *testing.T) {
	// Two columns: the ordering key and a partition tag that is not part
	// of the key. Equal keys must come out in partition arrival order.
	fieldTypes := []*types.FieldType{
		types.NewFieldType(types.TypeLonglong),
		types.NewFieldType(types.TypeLonglong),
	}
	loader := &taggedLoader{partitions: [][]int64{{1, 2, 2}, {2, 2, 3}}}
	sink := &ListSink{List: chunk.NewList(fieldTypes, 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems: []*plannerutil.ByItems{
			{Expr: &expression.Column{RetType: types.NewFieldType(types.TypeLonglong), Index: 0}},
		},
		FieldTypes: fieldTypes,
		Loader:     loader,
		Sink:       sink,
		Limit:      UnboundedLimit,
	})
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background()))

	var keys, tags []int64
	iter := chunk.NewIterator4List(sink.List)
	for row := iter.Begin(); !row.IsEmpty(); row = iter.Next() {
		keys = append(keys, row.GetInt64(0))
		tags = append(tags, row.GetInt64(1))
	}
	require.Equal(t, []int64{1, 2, 2, 2, 2, 3}, keys)
	// Partition 0's ties drain before partition 1's.
	require.Equal(t, []int64{0, 0, 0, 1, 1, 1}, tags)
}

// taggedLoader emits two-column rows, the second column holding the index
// of the originating partition.
type taggedLoader struct {
	partitions [][]int64
	next       int
}

func (l *taggedLoader) LoadNextBatch(_ context.Context, buf *chunk.List) (int, error) {
	if l.next >= len(l.partitions) {
		return 0, nil
	}
	part := l.partitions[l.next]
	tag := int64(l.next)
	l.next++
	for _, v := range part {
		stage := chunk.NewChunkWithCapacity(buf.FieldTypes(), 1)
		stage.AppendInt64(0, v)
		stage.AppendInt64(1, tag)
		buf.AppendRow(stage.GetRow(0))
	}
	return 1, nil
}

func TestNewMergeReceiveExecValidation(t *testing.T) {
	base := Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{},
		Sink:       &ListSink{List: chunk.NewList(intFieldTypes(), 32)},
		Limit:      UnboundedLimit,
	}

	cfg := base
	cfg.ByItems = nil
	_, err := NewMergeReceiveExec(cfg)
	require.Equal(t, ErrEmptyOrderingKey, errors.Cause(err))

	cfg = base
	cfg.ByItems = []*plannerutil.ByItems{{Expr: nil}}
	_, err = NewMergeReceiveExec(cfg)
	require.ErrorContains(t, err, "malformed")

	cfg = base
	cfg.FieldTypes = nil
	_, err = NewMergeReceiveExec(cfg)
	require.Error(t, err)

	cfg = base
	cfg.Loader = nil
	_, err = NewMergeReceiveExec(cfg)
	require.Equal(t, ErrNilLoader, errors.Cause(err))

	cfg = base
	cfg.Sink = nil
	_, err = NewMergeReceiveExec(cfg)
	require.Equal(t, ErrNilSink, errors.Cause(err))

	cfg = base
	cfg.Limit = -2
	_, err = NewMergeReceiveExec(cfg)
	require.ErrorContains(t, err, "invalid limit")

	cfg = base
	cfg.Offset = -1
	_, err = NewMergeReceiveExec(cfg)
	require.ErrorContains(t, err, "invalid offset")
}

func TestMemoryQuotaExceeded(t *testing.T) {
	killer := &sqlkiller.SQLKiller{ConnID: 3}
	sink := &ListSink{List: chunk.NewList(intFieldTypes(), 32)}
	exec, err := NewMergeReceiveExec(Config{
		ByItems:    intByItems(),
		FieldTypes: intFieldTypes(),
		Loader:     &sliceLoader{partitions: [][]int64{{1, 2, 3}, {4, 5, 6}}},
		Sink:       sink,
		Limit:      UnboundedLimit,
		Killer:     killer,
		MemQuota:   1,
	})
	require.NoError(t, err)
	err = exec.Execute(context.Background())
	require.Error(t, err)
	require.ErrorContains(t, err, "Out Of Memory Quota!")
	require.True(t, killer.HasKillSignal())
}
