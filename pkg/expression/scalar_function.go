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
	"strings"

	"github.com/pingcap/errors"

	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// EvalFunc computes a scalar function result from its evaluated arguments.
type EvalFunc func(ctx EvalContext, args []types.Datum) (types.Datum, error)

// ScalarFunction is an expression built from a named function over
// argument expressions.
type ScalarFunction struct {
	FuncName string
	RetType  *types.FieldType
	Args     []Expression
	Function EvalFunc
}

// Eval implements the Expression interface. Argument evaluation failures
// and function failures both propagate to the caller.
func (sf *ScalarFunction) Eval(ctx EvalContext, row chunk.Row) (types.Datum, error) {
	args := make([]types.Datum, len(sf.Args))
	for i, arg := range sf.Args {
		d, err := arg.Eval(ctx, row)
		if err != nil {
			return types.Datum{}, errors.Trace(err)
		}
		args[i] = d
	}
	return sf.Function(ctx, args)
}

// GetType implements the Expression interface.
func (sf *ScalarFunction) GetType() *types.FieldType {
	return sf.RetType
}

// String implements the fmt.Stringer interface.
func (sf *ScalarFunction) String() string {
	args := make([]string, len(sf.Args))
	for i, arg := range sf.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", sf.FuncName, strings.Join(args, ", "))
}
