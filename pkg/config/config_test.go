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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, DefMemQuotaMerge, conf.Performance.MemQuotaMerge)
	require.Equal(t, DefMaxChunkSize, conf.Performance.MaxChunkSize)
	require.Equal(t, DefCheckpointInterval, conf.Performance.CheckpointInterval)
	require.Equal(t, "info", conf.Log.Level)
	require.NoError(t, conf.Valid())
}

func TestLoadConfig(t *testing.T) {
	confFile := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "warn"
format = "json"

[performance]
mem-quota-merge = 1073741824
max-chunk-size = 256
checkpoint-interval = 4096
`
	require.NoError(t, os.WriteFile(confFile, []byte(content), 0o644))

	conf := NewConfig()
	require.NoError(t, conf.Load(confFile))
	require.Equal(t, "warn", conf.Log.Level)
	require.Equal(t, "json", conf.Log.Format)
	require.Equal(t, int64(1<<30), conf.Performance.MemQuotaMerge)
	require.Equal(t, 256, conf.Performance.MaxChunkSize)
	require.Equal(t, uint(4096), conf.Performance.CheckpointInterval)
	require.NoError(t, conf.Valid())
}

func TestValid(t *testing.T) {
	conf := NewConfig()
	conf.Performance.MaxChunkSize = 0
	require.ErrorContains(t, conf.Valid(), "max-chunk-size")

	conf = NewConfig()
	conf.Performance.CheckpointInterval = 0
	require.ErrorContains(t, conf.Valid(), "checkpoint-interval")
}

func TestGlobalConfig(t *testing.T) {
	orig := GetGlobalConfig()
	defer StoreGlobalConfig(orig)

	require.NotNil(t, orig)
	conf := NewConfig()
	conf.Performance.MaxChunkSize = 77
	StoreGlobalConfig(conf)
	require.Equal(t, 77, GetGlobalConfig().Performance.MaxChunkSize)
}
