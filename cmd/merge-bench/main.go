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

// merge-bench drives the merge receive stage against synthetic sorted
// partition runs and reports throughput. It is a load generator for
// profiling, not a correctness harness.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/config"
	"github.com/meridiandb/meridian/pkg/executor/mergerecv"
	"github.com/meridiandb/meridian/pkg/expression"
	"github.com/meridiandb/meridian/pkg/metrics"
	plannerutil "github.com/meridiandb/meridian/pkg/planner/util"
	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util"
	"github.com/meridiandb/meridian/pkg/util/chunk"
	"github.com/meridiandb/meridian/pkg/util/logutil"
	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

var (
	configPath  = flag.String("config", "", "config file path")
	partitions  = flag.Int("partitions", 8, "number of sorted partition runs to merge")
	rowsPerPart = flag.Int("rows", 100000, "rows per partition run")
	limit       = flag.Int64("limit", mergerecv.UnboundedLimit, "row limit, -1 for unbounded")
	offset      = flag.Int64("offset", 0, "rows to skip before emitting")
	concurrency = flag.Int("concurrency", 1, "concurrent merge invocations")
	seed        = flag.Int64("seed", 1, "seed for the synthetic runs")
)

func main() {
	flag.Parse()

	cfg := config.NewConfig()
	if *configPath != "" {
		if err := cfg.Load(*configPath); err != nil {
			logutil.BgLogger().Fatal("load config failed", zap.String("path", *configPath), zap.Error(err))
		}
	}
	if err := cfg.Valid(); err != nil {
		logutil.BgLogger().Fatal("invalid config", zap.Error(err))
	}
	config.StoreGlobalConfig(cfg)
	if err := logutil.InitLogger(cfg.Log.ToLogConfig()); err != nil {
		logutil.BgLogger().Fatal("init logger failed", zap.Error(err))
	}
	metrics.RegisterMetrics()

	start := time.Now()
	var wg util.WaitGroupWrapper
	var failed atomic.Bool
	for i := 0; i < *concurrency; i++ {
		workerID := i
		wg.Run(func() {
			if err := runOne(workerID); err != nil {
				logutil.BgLogger().Error("merge failed", zap.Int("worker", workerID), zap.Error(err))
				failed.Store(true)
			}
		})
	}
	wg.Wait()

	logutil.BgLogger().Info("merge bench finished",
		zap.Int("concurrency", *concurrency),
		zap.Int("partitions", *partitions),
		zap.Int("rowsPerPartition", *rowsPerPart),
		zap.Duration("elapsed", time.Since(start)))
	if failed.Load() {
		os.Exit(1)
	}
}

func runOne(workerID int) error {
	fieldTypes := []*types.FieldType{types.NewFieldType(types.TypeLonglong)}
	byItems := []*plannerutil.ByItems{
		{Expr: &expression.Column{RetType: fieldTypes[0], Index: 0}},
	}
	sink := &countingSink{}
	exec, err := mergerecv.NewMergeReceiveExec(mergerecv.Config{
		ByItems:    byItems,
		FieldTypes: fieldTypes,
		Loader: &syntheticLoader{
			remaining: *partitions,
			rowsPer:   *rowsPerPart,
			rng:       rand.New(rand.NewSource(*seed + int64(workerID))),
		},
		Sink:     sink,
		Limit:    *limit,
		Offset:   *offset,
		Killer:   &sqlkiller.SQLKiller{ConnID: uint64(workerID) + 1},
		MemQuota: config.GetGlobalConfig().Performance.MemQuotaMerge,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	if err := exec.Execute(context.Background()); err != nil {
		return err
	}
	elapsed := time.Since(start)
	logutil.BgLogger().Info("merge done",
		zap.Int("worker", workerID),
		zap.Int64("emittedRows", exec.EmittedRows()),
		zap.Duration("elapsed", elapsed))
	return nil
}

// syntheticLoader produces sorted runs of random integers, one run per
// LoadNextBatch call.
type syntheticLoader struct {
	remaining int
	rowsPer   int
	rng       *rand.Rand
}

func (l *syntheticLoader) LoadNextBatch(_ context.Context, buf *chunk.List) (int, error) {
	if l.remaining <= 0 {
		return 0, nil
	}
	l.remaining--
	v := int64(0)
	stage := chunk.NewChunkWithCapacity(buf.FieldTypes(), 1)
	for i := 0; i < l.rowsPer; i++ {
		v += l.rng.Int63n(16)
		stage.Reset()
		stage.AppendInt64(0, v)
		buf.AppendRow(stage.GetRow(0))
	}
	return 1, nil
}

type countingSink struct {
	rows int64
}

func (s *countingSink) Insert(chunk.Row) error {
	s.rows++
	return nil
}
