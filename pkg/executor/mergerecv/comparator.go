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
	"github.com/pingcap/errors"

	"github.com/meridiandb/meridian/pkg/expression"
	plannerutil "github.com/meridiandb/meridian/pkg/planner/util"
	"github.com/meridiandb/meridian/pkg/util/chunk"
)

// NullOrder controls where NULL keys sort relative to non-NULL keys on an
// ascending column. Descending columns invert the placement together with
// the value order.
type NullOrder byte

const (
	// NullsFirst sorts NULL before every non-NULL value. This is the
	// default.
	NullsFirst NullOrder = iota
	// NullsLast sorts NULL after every non-NULL value.
	NullsLast
)

// RowComparator imposes the merge order on two rows. A negative result
// means a sorts before b.
type RowComparator interface {
	Compare(a, b chunk.Row) (int, error)
}

// NewRowComparator builds a comparator for the given ordering key list.
// When every key expression is a plain column reference it returns a
// comparator that reads the key columns directly and never allocates;
// otherwise it falls back to evaluating the expressions per comparison.
func NewRowComparator(byItems []*plannerutil.ByItems, evalCtx expression.EvalContext, nullOrder NullOrder) RowComparator {
	keyColumns := make([]int, 0, len(byItems))
	keyCmpFuncs := make([]chunk.CompareFunc, 0, len(byItems))
	byItemsDesc := make([]bool, 0, len(byItems))
	for _, by := range byItems {
		col, ok := by.Expr.(*expression.Column)
		if !ok {
			return &exprComparator{byItems: byItems, evalCtx: evalCtx, nullsLast: nullOrder == NullsLast}
		}
		cmpFunc := chunk.GetCompareFunc(col.RetType)
		if cmpFunc == nil {
			return &exprComparator{byItems: byItems, evalCtx: evalCtx, nullsLast: nullOrder == NullsLast}
		}
		keyColumns = append(keyColumns, col.Index)
		keyCmpFuncs = append(keyCmpFuncs, cmpFunc)
		byItemsDesc = append(byItemsDesc, by.Desc)
	}
	return &columnComparator{
		keyColumns:  keyColumns,
		keyCmpFuncs: keyCmpFuncs,
		byItemsDesc: byItemsDesc,
		nullsLast:   nullOrder == NullsLast,
	}
}

// cmpNullOrder orders a pair in which at least one side is NULL. The
// result is from the ascending point of view, the caller applies the
// descending inversion afterwards.
func cmpNullOrder(aNull, bNull, nullsLast bool) int {
	if aNull && bNull {
		return 0
	}
	if aNull {
		if nullsLast {
			return 1
		}
		return -1
	}
	if nullsLast {
		return -1
	}
	return 1
}

// columnComparator compares rows on key columns, reading the stored datums
// in place.
type columnComparator struct {
	keyColumns  []int
	keyCmpFuncs []chunk.CompareFunc
	byItemsDesc []bool
	nullsLast   bool
}

// Compare implements the RowComparator interface.
func (c *columnComparator) Compare(a, b chunk.Row) (int, error) {
	for i, colIdx := range c.keyColumns {
		var cmp int
		aNull, bNull := a.IsNull(colIdx), b.IsNull(colIdx)
		if aNull || bNull {
			cmp = cmpNullOrder(aNull, bNull, c.nullsLast)
		} else {
			cmp = c.keyCmpFuncs[i](a, colIdx, b, colIdx)
		}
		if c.byItemsDesc[i] {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}

// exprComparator evaluates the key expressions against both rows for
// every comparison. It is the slow path for computed ordering keys.
type exprComparator struct {
	byItems   []*plannerutil.ByItems
	evalCtx   expression.EvalContext
	nullsLast bool
}

// Compare implements the RowComparator interface.
func (c *exprComparator) Compare(a, b chunk.Row) (int, error) {
	for _, by := range c.byItems {
		da, err := by.Expr.Eval(c.evalCtx, a)
		if err != nil {
			return 0, errors.Trace(err)
		}
		db, err := by.Expr.Eval(c.evalCtx, b)
		if err != nil {
			return 0, errors.Trace(err)
		}
		var cmp int
		if da.IsNull() || db.IsNull() {
			cmp = cmpNullOrder(da.IsNull(), db.IsNull(), c.nullsLast)
		} else {
			cmp, err = da.Compare(&db)
			if err != nil {
				return 0, errors.Trace(err)
			}
		}
		if by.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}
