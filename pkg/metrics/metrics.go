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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	// LblResult is the label name for the invocation result.
	LblResult = "result"

	// LblOK is the result label for a completed merge.
	LblOK = "ok"
	// LblCancelled is the result label for a cancelled merge.
	LblCancelled = "cancelled"
	// LblError is the result label for a failed merge.
	LblError = "error"
)

// Executor metrics.
var (
	MergeReceiveDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meridian",
			Subsystem: "executor",
			Name:      "merge_receive_duration_seconds",
			Help:      "Bucketed histogram of processing time (s) of merge receive invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 22), // 0.5ms ~ 17min
		}, []string{LblResult})

	MergeReceiveRowsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "executor",
			Name:      "merge_receive_rows_total",
			Help:      "Counter of rows emitted by merge receive invocations.",
		})

	MergeReceivePartitionsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meridian",
			Subsystem: "executor",
			Name:      "merge_receive_partitions",
			Help:      "Bucketed histogram of the partition count per merge receive invocation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1 ~ 2048
		})
)

// RegisterMetrics registers the merge stage metrics.
func RegisterMetrics() {
	prometheus.MustRegister(MergeReceiveDurationHistogram)
	prometheus.MustRegister(MergeReceiveRowsCounter)
	prometheus.MustRegister(MergeReceivePartitionsHistogram)
}
