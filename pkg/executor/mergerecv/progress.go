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
	"github.com/meridiandb/meridian/pkg/util/sqlkiller"
)

// progressMonitor rations how often the merge loop consults the kill
// signal. Checking on every row is too expensive for large inputs, so the
// monitor only forwards to the killer once per interval rows.
type progressMonitor struct {
	killer   *sqlkiller.SQLKiller
	interval uint
	counter  uint
}

func newProgressMonitor(killer *sqlkiller.SQLKiller, interval uint) *progressMonitor {
	return &progressMonitor{killer: killer, interval: interval}
}

// checkpoint accounts for one examined row and consults the kill signal
// every interval rows.
func (p *progressMonitor) checkpoint() error {
	p.counter++
	if p.counter < p.interval {
		return nil
	}
	p.counter = 0
	return p.check()
}

// check consults the kill signal unconditionally, regardless of the row
// budget. It is used at phase boundaries so a pending signal is honored
// even when the input is too small to ever hit the checkpoint interval.
func (p *progressMonitor) check() error {
	if p.killer == nil {
		return nil
	}
	return p.killer.HandleSignal()
}
