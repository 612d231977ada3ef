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
	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// Constant represents a literal constant.
type Constant struct {
	Value   types.Datum
	RetType *types.FieldType
}

// Eval implements the Expression interface.
func (c *Constant) Eval(_ EvalContext, _ chunk.Row) (types.Datum, error) {
	return c.Value, nil
}

// GetType implements the Expression interface.
func (c *Constant) GetType() *types.FieldType {
	return c.RetType
}

// String implements the fmt.Stringer interface.
func (c *Constant) String() string {
	return c.Value.String()
}
