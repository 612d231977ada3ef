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

package expression

import (
	"fmt"
	"time"

	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// EvalContext is the evaluation context an Expression is evaluated in.
// It carries the session state value semantics depend on.
type EvalContext interface {
	// Location returns the time zone used to evaluate temporal values.
	Location() *time.Location
}

// Expression represents a scalar expression evaluated against one row.
type Expression interface {
	fmt.Stringer

	// Eval evaluates the expression against the given row.
	Eval(ctx EvalContext, row chunk.Row) (types.Datum, error)

	// GetType returns the type of the expression result.
	GetType() *types.FieldType
}

type evalContext struct {
	loc *time.Location
}

// NewEvalContext creates an EvalContext with the given time zone.
// A nil location defaults to UTC.
func NewEvalContext(loc *time.Location) EvalContext {
	if loc == nil {
		loc = time.UTC
	}
	return &evalContext{loc: loc}
}

func (ctx *evalContext) Location() *time.Location {
	return ctx.loc
}
