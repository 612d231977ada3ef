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

// Package mergerecv implements the receiving half of a distributed merge
// sort. Each partition ships a run of rows already sorted on the query's
// ordering key; this package buffers the runs, then streams them out as a
// single sorted sequence with LIMIT/OFFSET applied, without ever re-sorting.
package mergerecv

import (
	"context"
	"math/rand"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"
	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/config"
	"github.com/meridiandb/meridian/pkg/expression"
	"github.com/meridiandb/meridian/pkg/metrics"
	plannerutil "github.com/meridiandb/meridian/pkg/planner/util"
	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util"
	"github.com/meridiandb/meridian/pkg/util/chunk"
	"github.com/meridiandb/meridian/pkg/util/logutil"
	"github.com/meridiandb/meridian/pkg/util/memory"
	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

// UnboundedLimit disables the row limit. A limit of zero is a real limit
// that emits nothing.
const UnboundedLimit int64 = -1

var (
	// ErrEmptyOrderingKey is returned when the ordering key list is empty.
	ErrEmptyOrderingKey = errors.New("merge receive requires at least one ordering key")
	// ErrNilLoader is returned when no dependency loader is configured.
	ErrNilLoader = errors.New("merge receive requires a dependency loader")
	// ErrNilSink is returned when no row sink is configured.
	ErrNilSink = errors.New("merge receive requires a row sink")
)

// Config carries everything a single merge invocation needs. The zero
// value is not usable, at minimum ByItems, FieldTypes, Loader and Sink
// must be set.
type Config struct {
	// ByItems is the ordering key: one entry per key expression with its
	// direction. Rows inside every loaded batch must already be sorted by
	// it.
	ByItems []*plannerutil.ByItems
	// FieldTypes describes the row schema shared by all partitions.
	FieldTypes []*types.FieldType
	// Loader delivers the partition batches.
	Loader DependencyLoader
	// Sink receives the merged rows.
	Sink RowSink
	// EvalCtx is only consulted when an ordering key is not a plain
	// column reference. May be nil for column-only keys.
	EvalCtx expression.EvalContext
	// Killer carries the cooperative cancellation signal. May be nil, in
	// which case the merge is not cancellable.
	Killer *sqlkiller.SQLKiller
	// MemTracker is the parent tracker the input buffer attaches to, or
	// nil to leave the buffer untracked by the caller.
	MemTracker *memory.Tracker
	// MemQuota caps the bytes buffered by this invocation. Zero or
	// negative means the global default from the config file applies
	// through MemTracker only.
	MemQuota int64
	// Limit is the maximum number of rows to emit, or UnboundedLimit.
	Limit int64
	// Offset is the number of merged rows to skip before emitting.
	Offset int64
	// NullOrder places NULL keys relative to non-NULL ones.
	NullOrder NullOrder
	// MaxChunkSize overrides the buffered chunk capacity when positive.
	MaxChunkSize int
	// CheckpointInterval overrides how many rows the merge examines
	// between kill signal checks when positive.
	CheckpointInterval uint
}

// MergeReceiveExec merges pre-sorted partition runs into one ordered
// output stream. It is single use: build one per invocation and call
// Execute exactly once.
type MergeReceiveExec struct {
	loader     DependencyLoader
	sink       RowSink
	cmp        RowComparator
	pmp        *progressMonitor
	memTracker *memory.Tracker
	fieldTypes []*types.FieldType

	maxChunkSize int
	limits       limitState

	numPartitions int
}

// NewMergeReceiveExec validates cfg and builds the executor. A malformed
// ordering key list or an out-of-range limit/offset is rejected here, the
// later Execute call never re-checks configuration.
func NewMergeReceiveExec(cfg Config) (*MergeReceiveExec, error) {
	if len(cfg.ByItems) == 0 {
		return nil, errors.Trace(ErrEmptyOrderingKey)
	}
	for i, by := range cfg.ByItems {
		if by == nil || by.Expr == nil {
			return nil, errors.Errorf("ordering key %d is malformed", i)
		}
	}
	if len(cfg.FieldTypes) == 0 {
		return nil, errors.New("merge receive requires a row schema")
	}
	if cfg.Loader == nil {
		return nil, errors.Trace(ErrNilLoader)
	}
	if cfg.Sink == nil {
		return nil, errors.Trace(ErrNilSink)
	}
	if cfg.Limit < UnboundedLimit {
		return nil, errors.Errorf("invalid limit %d", cfg.Limit)
	}
	if cfg.Offset < 0 {
		return nil, errors.Errorf("invalid offset %d", cfg.Offset)
	}

	perf := config.GetGlobalConfig().Performance
	maxChunkSize := cfg.MaxChunkSize
	if maxChunkSize <= 0 {
		maxChunkSize = perf.MaxChunkSize
	}
	interval := cfg.CheckpointInterval
	if interval == 0 {
		interval = perf.CheckpointInterval
	}

	memTracker := memory.NewTracker(memory.LabelForMergeReceive, cfg.MemQuota)
	if cfg.MemQuota > 0 {
		memTracker.SetActionOnExceed(&memory.PanicOnExceed{
			Killer: cfg.Killer,
		})
	}
	if cfg.MemTracker != nil {
		memTracker.AttachTo(cfg.MemTracker)
	}

	return &MergeReceiveExec{
		loader:       cfg.Loader,
		sink:         cfg.Sink,
		cmp:          NewRowComparator(cfg.ByItems, cfg.EvalCtx, cfg.NullOrder),
		pmp:          newProgressMonitor(cfg.Killer, interval),
		memTracker:   memTracker,
		fieldTypes:   cfg.FieldTypes,
		maxChunkSize: maxChunkSize,
		limits:       limitState{limit: cfg.Limit, offset: cfg.Offset},
	}, nil
}

// EmittedRows reports how many rows reached the sink. It is only
// meaningful after Execute returns.
func (e *MergeReceiveExec) EmittedRows() int64 {
	return e.limits.emitted
}

// Execute runs the merge to completion: it drains the loader, merges the
// buffered runs and pushes the surviving rows into the sink. The buffered
// input is released before Execute returns, whatever the outcome.
func (e *MergeReceiveExec) Execute(ctx context.Context) error {
	start := time.Now()
	err := e.execute(ctx)
	result := metrics.LblOK
	switch {
	case isCancelErr(err):
		result = metrics.LblCancelled
	case err != nil:
		result = metrics.LblError
	}
	metrics.MergeReceiveDurationHistogram.WithLabelValues(result).Observe(time.Since(start).Seconds())
	metrics.MergeReceiveRowsCounter.Add(float64(e.limits.emitted))
	metrics.MergeReceivePartitionsHistogram.Observe(float64(e.numPartitions))
	if err != nil {
		logutil.BgLogger().Warn("merge receive finished abnormally",
			zap.String("result", result),
			zap.Int("partitions", e.numPartitions),
			zap.Int64("emittedRows", e.limits.emitted),
			zap.Error(err))
	}
	return err
}

func (e *MergeReceiveExec) execute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = util.GetRecoverError(r)
			logutil.BgLogger().Error("merge receive panicked",
				zap.Error(err), zap.Stack("stack"))
		}
		e.memTracker.Detach()
	}()

	logutil.BgLogger().Debug("merge receive started",
		zap.Int64("limit", e.limits.limit),
		zap.Int64("offset", e.limits.offset))

	collector := newInputCollector(e.loader, e.fieldTypes, e.maxChunkSize, e.memTracker, e.pmp)
	defer collector.close()

	partitionRowCounts, err := collector.collect(ctx)
	if err != nil {
		return err
	}
	e.numPartitions = len(partitionRowCounts)

	failpoint.Inject("mergeReceiveAfterCollectError", func(val failpoint.Value) {
		if val.(bool) {
			failpoint.Return(errors.New("injected error after collect"))
		}
	})

	rows, err := collector.unload()
	if err != nil {
		return err
	}
	if err := e.mergeSort(rows, partitionRowCounts); err != nil {
		return err
	}
	// A signal that raced the end of a small merge still wins.
	if err := e.pmp.check(); err != nil {
		return err
	}
	logutil.BgLogger().Debug("merge receive finished",
		zap.Int("partitions", e.numPartitions),
		zap.Int("bufferedRows", len(rows)),
		zap.Int64("emittedRows", e.limits.emitted))
	return nil
}

// mergeSort consumes the flattened runs in ordering key order, applying
// the offset/limit discipline on every candidate row. Hitting the limit
// terminates the merge immediately, remaining buffered rows are abandoned.
func (e *MergeReceiveExec) mergeSort(rows []chunk.Row, partitionRowCounts []int64) error {
	ranges := newPartitionRanges(partitionRowCounts)
	for {
		ranges.pruneExhausted()
		switch ranges.size() {
		case 0:
			return nil
		case 1:
			return e.drainLastRange(rows, ranges.first())
		}
		minRange, err := ranges.selectMin(e.cmp, rows)
		if err != nil {
			return err
		}
		row := rows[minRange.begin]
		minRange.advance()
		if err := e.pmp.checkpoint(); err != nil {
			return err
		}
		stop, err := e.offer(row)
		if err != nil || stop {
			return err
		}
		injectMergeReceiveRandomFail()
	}
}

// drainLastRange streams the sole surviving run. The run is already
// sorted, so the comparator is never consulted here.
func (e *MergeReceiveExec) drainLastRange(rows []chunk.Row, r *rowRange) error {
	for !r.exhausted() {
		row := rows[r.begin]
		r.advance()
		if err := e.pmp.checkpoint(); err != nil {
			return err
		}
		stop, err := e.offer(row)
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// offer passes one merged candidate row through the offset/limit gate.
// It reports stop=true as soon as the limit is exhausted, which includes
// the emit that fills it.
func (e *MergeReceiveExec) offer(row chunk.Row) (stop bool, err error) {
	switch e.limits.step() {
	case actionSkip:
		return false, nil
	case actionStop:
		return true, nil
	}
	if err := e.sink.Insert(row); err != nil {
		return false, errors.Trace(err)
	}
	return e.limits.done(), nil
}

// limitState applies OFFSET then LIMIT to the merged stream. Skipped rows
// do not count against the limit.
type limitState struct {
	limit   int64
	offset  int64
	emitted int64
	skipped int64
}

type emitAction byte

const (
	actionSkip emitAction = iota
	actionEmit
	actionStop
)

func (ls *limitState) step() emitAction {
	if ls.skipped < ls.offset {
		ls.skipped++
		return actionSkip
	}
	if ls.limit == UnboundedLimit || ls.emitted < ls.limit {
		ls.emitted++
		return actionEmit
	}
	return actionStop
}

// done reports whether the limit has been filled.
func (ls *limitState) done() bool {
	return ls.limit != UnboundedLimit && ls.emitted >= ls.limit
}

func isCancelErr(err error) bool {
	cause := errors.Cause(err)
	return cause == sqlkiller.ErrQueryInterrupted ||
		cause == sqlkiller.ErrMaxExecTimeExceeded ||
		cause == sqlkiller.ErrMemoryExceedForQuery ||
		cause == sqlkiller.ErrServerShutdown
}

func injectMergeReceiveRandomFail() {
	failpoint.Inject("mergeReceiveRandomFail", func(val failpoint.Value) {
		if val.(bool) {
			randNum := rand.Int31n(10000)
			if randNum < 3 {
				panic("random fail is triggered in merge receive")
			}
		}
	})
}
