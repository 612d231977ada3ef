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

package sqlkiller

import (
	"sync/atomic"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/util/logutil"
)

// Distinct cancellation failures, one per kill reason, so the caller can
// tell an interrupt apart from a timeout or a memory kill.
var (
	// ErrQueryInterrupted is returned when the query is killed by the client.
	ErrQueryInterrupted = errors.New("query is interrupted")
	// ErrMaxExecTimeExceeded is returned when the query runs over its execution timeout.
	ErrMaxExecTimeExceeded = errors.New("query execution was interrupted, maximum statement execution time exceeded")
	// ErrMemoryExceedForQuery is returned when the query is killed for exceeding its memory quota.
	ErrMemoryExceedForQuery = errors.New("query execution was interrupted, memory quota for the query exceeded")
	// ErrServerShutdown is returned when the server is shutting down.
	ErrServerShutdown = errors.New("server is shutting down")
)

type killSignal = uint32

// KillSignal types.
const (
	// UnspecifiedKillSignal means no kill signal has been sent.
	UnspecifiedKillSignal killSignal = iota
	// QueryInterrupted indicates the query was killed by the client.
	QueryInterrupted
	// MaxExecTimeExceeded indicates the query ran over its execution timeout.
	MaxExecTimeExceeded
	// QueryMemoryExceeded indicates the query exceeded its memory quota.
	QueryMemoryExceeded
	// ServerShutDown indicates the server is shutting down.
	ServerShutDown
)

// SQLKiller is the cancellation token of one query invocation. A signal is
// delivered asynchronously by SendKillSignal and observed cooperatively
// wherever HandleSignal is called.
type SQLKiller struct {
	Signal killSignal
	ConnID uint64
}

// SendKillSignal sends a kill signal to the query. Only the first signal
// takes effect, later ones are dropped.
func (killer *SQLKiller) SendKillSignal(reason killSignal) {
	if atomic.CompareAndSwapUint32(&killer.Signal, 0, reason) {
		logutil.BgLogger().Warn("kill signal sent",
			zap.Uint64("conn", killer.ConnID),
			zap.Uint32("reason", reason))
	}
}

// HandleSignal checks the kill signal and returns the matching error when
// the query should stop. It is the periodic checkpoint of cooperative
// cancellation.
func (killer *SQLKiller) HandleSignal() error {
	status := atomic.LoadUint32(&killer.Signal)
	switch status {
	case QueryInterrupted:
		return errors.Trace(ErrQueryInterrupted)
	case MaxExecTimeExceeded:
		return errors.Trace(ErrMaxExecTimeExceeded)
	case QueryMemoryExceeded:
		return errors.Trace(ErrMemoryExceedForQuery)
	case ServerShutDown:
		return errors.Trace(ErrServerShutdown)
	}
	return nil
}

// HasKillSignal reports whether a kill signal is pending.
func (killer *SQLKiller) HasKillSignal() bool {
	return atomic.LoadUint32(&killer.Signal) != UnspecifiedKillSignal
}

// Reset resets the kill signal, so the token can serve the next invocation.
func (killer *SQLKiller) Reset() {
	atomic.StoreUint32(&killer.Signal, UnspecifiedKillSignal)
}
