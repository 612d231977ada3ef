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
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"

	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

func newTestCollector(loader DependencyLoader, killer *sqlkiller.SQLKiller) *inputCollector {
	return newInputCollector(loader, intFieldTypes(), 4, nil, newProgressMonitor(killer, 10240))
}

func TestCollectRecordsPartitionBoundaries(t *testing.T) {
	c := newTestCollector(&sliceLoader{partitions: [][]int64{{1, 2, 3}, {}, {4}, {}, {5, 6}}}, nil)
	defer c.close()

	counts, err := c.collect(context.Background())
	require.NoError(t, err)
	// Empty batches leave no boundary behind.
	require.Equal(t, []int64{3, 1, 2}, counts)
	require.Equal(t, 6, c.buf.Len())
}

func TestCollectEmptyLoader(t *testing.T) {
	c := newTestCollector(&sliceLoader{}, nil)
	defer c.close()

	counts, err := c.collect(context.Background())
	require.NoError(t, err)
	require.Empty(t, counts)
	require.Zero(t, c.buf.Len())
}

func TestCollectLoaderError(t *testing.T) {
	loadErr := errors.New("partition stream truncated")
	c := newTestCollector(&errLoader{err: loadErr}, nil)
	defer c.close()

	_, err := c.collect(context.Background())
	require.Equal(t, loadErr, errors.Cause(err))
}

func TestCollectHonorsKillSignal(t *testing.T) {
	killer := &sqlkiller.SQLKiller{ConnID: 7}
	killer.SendKillSignal(sqlkiller.ServerShutDown)
	c := newTestCollector(&sliceLoader{partitions: [][]int64{{1}}}, killer)
	defer c.close()

	_, err := c.collect(context.Background())
	require.Equal(t, sqlkiller.ErrServerShutdown, errors.Cause(err))
}

func TestUnloadFlattensInOrder(t *testing.T) {
	c := newTestCollector(&sliceLoader{partitions: [][]int64{{1, 2, 3, 4, 5}, {6, 7}}}, nil)
	defer c.close()

	_, err := c.collect(context.Background())
	require.NoError(t, err)

	rows, err := c.unload()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for i, row := range rows {
		require.Equal(t, int64(i+1), row.GetInt64(0))
	}
}
