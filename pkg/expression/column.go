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

	"github.com/pingcap/errors"

	"github.com/meridiandb/meridian/pkg/types"
	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// Column represents a column reference, projected by index from the row.
type Column struct {
	RetType *types.FieldType
	// Index is used for execution, to tell the column's position in the schema.
	Index int
}

// Eval implements the Expression interface.
func (col *Column) Eval(_ EvalContext, row chunk.Row) (types.Datum, error) {
	if col.Index < 0 || col.Index >= row.Len() {
		return types.Datum{}, errors.Errorf("column index %d out of range, row has %d columns", col.Index, row.Len())
	}
	return row.GetDatum(col.Index), nil
}

// GetType implements the Expression interface.
func (col *Column) GetType() *types.FieldType {
	return col.RetType
}

// String implements the fmt.Stringer interface.
func (col *Column) String() string {
	return fmt.Sprintf("Column#%d", col.Index)
}
