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

package memory

import (
	"sync"

	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/util/logutil"
	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

// ActionOnExceed is the action taken when memory usage exceeds the memory quota.
// NOTE: All the implementors should be thread-safe.
type ActionOnExceed interface {
	// Action will be called when memory usage exceeds the memory quota by the
	// corresponding Tracker.
	Action(t *Tracker)
}

// LogOnExceed logs a warning only once when memory usage exceeds the memory quota.
type LogOnExceed struct {
	mutex sync.Mutex
	acted bool
}

// Action logs a warning only once when memory usage exceeds the memory quota.
func (a *LogOnExceed) Action(t *Tracker) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.acted {
		a.acted = true
		logutil.BgLogger().Warn("memory exceeds quota",
			zap.Int("label", t.Label()),
			zap.Int64("consumed", t.BytesConsumed()),
			zap.Int64("quota", t.GetBytesLimit()))
	}
}

// PanicOnExceed panics when memory usage exceeds the memory quota.
type PanicOnExceed struct {
	// Killer, when set, is flagged with a memory-exceeded signal before
	// the panic fires so the failure is classified as a cancellation.
	Killer *sqlkiller.SQLKiller

	mutex sync.Mutex
	acted bool
}

// PanicMemoryExceed represents the panic message when out of memory quota.
const PanicMemoryExceed string = "Out Of Memory Quota!"

// Action panics when memory usage exceeds the memory quota.
func (a *PanicOnExceed) Action(t *Tracker) {
	a.mutex.Lock()
	if a.acted {
		a.mutex.Unlock()
		return
	}
	a.acted = true
	a.mutex.Unlock()
	logutil.BgLogger().Warn("memory exceeds quota",
		zap.Int("label", t.Label()),
		zap.Int64("consumed", t.BytesConsumed()),
		zap.Int64("quota", t.GetBytesLimit()))
	if a.Killer != nil {
		a.Killer.SendKillSignal(sqlkiller.QueryMemoryExceeded)
	}
	panic(PanicMemoryExceed + t.String())
}
