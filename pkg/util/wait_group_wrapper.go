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

package util

import (
	"sync"

	"go.uber.org/zap"

	"github.com/meridiandb/meridian/pkg/util/logutil"
)

// WaitGroupWrapper is a wrapper for sync.WaitGroup.
type WaitGroupWrapper struct {
	sync.WaitGroup
}

// Run runs a function in a goroutine, adds 1 to WaitGroup
// and calls Done when the function returns. Please DO NOT use panic
// in the cb function, as it will be recovered and logged only.
func (w *WaitGroupWrapper) Run(exec func()) {
	w.Add(1)
	go func() {
		defer w.Done()
		exec()
	}()
}

// RunWithRecover wraps goroutine startup call with force recovery, add 1 to WaitGroup
// and call done when function return. It will dump current goroutine stack into log if catch any recover result.
func (w *WaitGroupWrapper) RunWithRecover(exec func(), recoverFn func(r any)) {
	w.Add(1)
	go func() {
		defer func() {
			r := recover()
			if r != nil {
				logutil.BgLogger().Error("panic in the recoverable goroutine",
					zap.Any("r", r),
					zap.Stack("stack trace"))
				if recoverFn != nil {
					recoverFn(r)
				}
			}
			w.Done()
		}()
		exec()
	}()
}
