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
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	"github.com/meridiandb/meridian/pkg/util/logutil"
)

// Default configuration values.
const (
	// DefMemQuotaMerge is the default memory quota of one merge invocation, 32GB.
	DefMemQuotaMerge int64 = 32 << 30
	// DefMaxChunkSize is the default max row count of a chunk.
	DefMaxChunkSize = 1024
	// DefCheckpointInterval is the default number of rows between two
	// cancellation checkpoints.
	DefCheckpointInterval uint = 10240
)

// Config contains configuration options.
type Config struct {
	Log         Log         `toml:"log" json:"log"`
	Performance Performance `toml:"performance" json:"performance"`
}

// Log is the log section of config.
type Log struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log format, one of json or text.
	Format string `toml:"format" json:"format"`
	// Disable automatic timestamps in output.
	DisableTimestamp bool `toml:"disable-timestamp" json:"disable-timestamp"`
	// File log config.
	File logutil.FileLogConfig `toml:"file" json:"file"`
}

// ToLogConfig converts the log section to a logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format, logutil.FileLogConfig{FileLogConfig: l.File.FileLogConfig}, l.DisableTimestamp)
}

// Performance is the performance section of the config.
type Performance struct {
	// MemQuotaMerge is the memory quota in bytes for one merge invocation,
	// <= 0 means no quota.
	MemQuotaMerge int64 `toml:"mem-quota-merge" json:"mem-quota-merge"`
	// MaxChunkSize is the max row count of one chunk of the input buffer.
	MaxChunkSize int `toml:"max-chunk-size" json:"max-chunk-size"`
	// CheckpointInterval is the number of rows examined between two
	// cancellation checkpoints.
	CheckpointInterval uint `toml:"checkpoint-interval" json:"checkpoint-interval"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
		File:   logutil.NewFileLogConfig(logutil.DefaultLogMaxSize),
	},
	Performance: Performance{
		MemQuotaMerge:      DefMemQuotaMerge,
		MaxChunkSize:       DefMaxChunkSize,
		CheckpointInterval: DefCheckpointInterval,
	},
}

var globalConf atomic.Pointer[Config]

func init() {
	conf := defaultConf
	StoreGlobalConfig(&conf)
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// GetGlobalConfig returns the global configuration for this server.
// It should store configuration from command line and configuration file.
// Other parts of the system can read the global configuration use this function.
func GetGlobalConfig() *Config {
	return globalConf.Load()
}

// StoreGlobalConfig stores a new config to the globalConf.
func StoreGlobalConfig(config *Config) {
	globalConf.Store(config)
}

// Load loads config options from a toml file.
func (c *Config) Load(confFile string) error {
	_, err := toml.DecodeFile(confFile, c)
	return errors.Trace(err)
}

// Valid checks whether the config is valid.
func (c *Config) Valid() error {
	if c.Performance.MaxChunkSize < 1 {
		return errors.Errorf("invalid max-chunk-size %d, it should be at least 1", c.Performance.MaxChunkSize)
	}
	if c.Performance.CheckpointInterval == 0 {
		return errors.New("invalid checkpoint-interval, it should be greater than 0")
	}
	return nil
}
